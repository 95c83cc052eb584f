// Package serpapi implements the SerpAPI search provider.
package serpapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/provider"
)

const name = "serpapi"

type organicResult struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
	Link        string `json:"link"`
	URL         string `json:"url"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// Provider queries SerpAPI's Google engine.
type Provider struct {
	client   *resty.Client
	apiKey   string
	language string
	region   string
}

// New creates a SerpAPI provider. It is unavailable when no API key is set.
func New(cfg config.SerpAPIConfig, language, region string) *Provider {
	return &Provider{
		client:   provider.NewClient(cfg.BaseURL, cfg.Timeout),
		apiKey:   cfg.APIKey,
		language: language,
		region:   region,
	}
}

func (p *Provider) Name() string          { return name }
func (p *Provider) Source() models.Source { return models.SourceAPIProviderA }
func (p *Provider) Available() bool       { return p.apiKey != "" }

func (p *Provider) Fetch(ctx context.Context, req *engine.FetchRequest) engine.Outcome {
	var body searchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":       req.Keyword,
			"engine":  "google",
			"api_key": p.apiKey,
			"num":     strconv.Itoa(req.MaxItems),
			"hl":      p.language,
			"gl":      p.region,
		}).
		SetResult(&body).
		Get("/search")
	if err != nil {
		return provider.RequestFailure(ctx, name, err)
	}
	if resp.IsError() {
		return provider.StatusFailure(name, resp)
	}

	results := make([]models.Result, 0, len(body.OrganicResults))
	for _, item := range body.OrganicResults {
		if len(results) == req.MaxItems {
			break
		}
		results = append(results, models.Result{
			Title:    item.Title,
			Snippet:  provider.FirstNonEmpty(item.Snippet, item.Description),
			URL:      provider.FirstNonEmpty(item.Link, item.URL),
			Position: len(results) + 1,
		})
	}
	if len(results) == 0 {
		if body.Error != "" {
			return engine.Failure(models.ReasonNoResults, "", fmt.Errorf("%s: %s", name, body.Error))
		}
		return engine.Failure(models.ReasonNoResults, "", nil)
	}
	return engine.Success(results)
}
