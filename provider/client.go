// Package provider holds the HTTP plumbing shared by the search API
// providers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/models"
)

// NewClient returns a resty client for a JSON search API.
func NewClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "serpscout/1.0")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}

// RequestFailure converts a transport error into a failed outcome: timeout
// if the deadline or cancellation caused it, exception otherwise.
func RequestFailure(ctx context.Context, name string, err error) engine.Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return engine.Failure(models.ReasonTimeout, "", fmt.Errorf("%s: %w", name, err))
	}
	return engine.Failure(models.ReasonException, "", fmt.Errorf("%s: %w", name, err))
}

// StatusFailure converts a non-2xx response into an exception outcome.
func StatusFailure(name string, resp *resty.Response) engine.Outcome {
	body := resp.String()
	if len(body) > 200 {
		body = body[:200]
	}
	return engine.Failure(models.ReasonException, "",
		fmt.Errorf("%s: unexpected status %d: %s", name, resp.StatusCode(), body))
}

// FirstNonEmpty returns the first non-empty string.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
