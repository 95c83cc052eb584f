package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// serpRequest mirrors the serpscout API request model.
type serpRequest struct {
	Keywords   []string     `json:"keywords"`
	PerKeyword int          `json:"per_keyword,omitempty"`
	Options    fetchOptions `json:"options"`
}

type fetchOptions struct {
	APIFirst bool `json:"api_first,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jobResponse mirrors the serpscout job creation response.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type record struct {
	Keyword       string  `json:"keyword"`
	Title         string  `json:"title"`
	Snippet       string  `json:"snippet"`
	URL           string  `json:"url"`
	Position      int     `json:"position"`
	Source        string  `json:"source"`
	Blocked       bool    `json:"blocked"`
	BlockedReason *string `json:"blocked_reason"`
}

// jobStatusResponse mirrors the serpscout job status response.
type jobStatusResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Records   []record  `json:"records"`
	Error     *apiError `json:"error"`
}

type apiClient struct {
	client       *resty.Client
	pollInterval time.Duration
}

func newAPIClient(baseURL, apiKey string, pollInterval time.Duration) *apiClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("X-API-Key", apiKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(30 * time.Second)
	return &apiClient{client: client, pollInterval: pollInterval}
}

func (a *apiClient) createJob(ctx context.Context, payload serpRequest) (string, error) {
	var job jobResponse
	var errBody struct {
		Error *apiError `json:"error"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&job).
		SetError(&errBody).
		Post("/api/v1/serp/jobs")
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		if errBody.Error != nil {
			return "", fmt.Errorf("[%s] %s", errBody.Error.Code, errBody.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	if job.ID == "" {
		return "", fmt.Errorf("no job id in response")
	}
	return job.ID, nil
}

// waitForJob polls the job until it leaves the queued and processing
// states or ctx is done.
func (a *apiClient) waitForJob(ctx context.Context, id string) (*jobStatusResponse, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var status jobStatusResponse
			resp, err := a.client.R().
				SetContext(ctx).
				SetResult(&status).
				Get("/api/v1/serp/jobs/" + id)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("poll returned status %d", resp.StatusCode())
			}
			if status.Status != "queued" && status.Status != "processing" {
				return &status, nil
			}
		}
	}
}
