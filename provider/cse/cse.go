// Package cse implements the Google Custom Search JSON API provider.
package cse

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/provider"
)

const (
	name = "cse"

	// maxNum is the largest page size the API accepts.
	maxNum = 10
)

type item struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type searchResponse struct {
	Items []item `json:"items"`
}

// Provider queries a Programmable Search Engine.
type Provider struct {
	client *resty.Client
	apiKey string
	cx     string
}

// New creates a CSE provider. It needs both an API key and an engine ID.
func New(cfg config.CSEConfig) *Provider {
	return &Provider{
		client: provider.NewClient(cfg.BaseURL, cfg.Timeout),
		apiKey: cfg.APIKey,
		cx:     cfg.CX,
	}
}

func (p *Provider) Name() string          { return name }
func (p *Provider) Source() models.Source { return models.SourceAPIProviderB }
func (p *Provider) Available() bool       { return p.apiKey != "" && p.cx != "" }

func (p *Provider) Fetch(ctx context.Context, req *engine.FetchRequest) engine.Outcome {
	num := req.MaxItems
	if num > maxNum {
		num = maxNum
	}

	var body searchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": p.apiKey,
			"cx":  p.cx,
			"q":   req.Keyword,
			"num": strconv.Itoa(num),
		}).
		SetResult(&body).
		Get("/customsearch/v1")
	if err != nil {
		return provider.RequestFailure(ctx, name, err)
	}
	if resp.IsError() {
		return provider.StatusFailure(name, resp)
	}

	results := make([]models.Result, 0, len(body.Items))
	for _, it := range body.Items {
		if len(results) == req.MaxItems {
			break
		}
		results = append(results, models.Result{
			Title:    it.Title,
			Snippet:  it.Snippet,
			URL:      it.Link,
			Position: len(results) + 1,
		})
	}
	if len(results) == 0 {
		return engine.Failure(models.ReasonNoResults, "", nil)
	}
	return engine.Success(results)
}
