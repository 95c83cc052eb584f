package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/models"
)

// ErrNoProviders is returned when a chain is built without any available
// provider. It is the only configuration error that reaches callers.
var ErrNoProviders = errors.New("engine: no providers available")

// Chain tries providers in order for a single keyword and stops at the
// first success. The browser provider normally goes first; API providers
// follow in the order given.
type Chain struct {
	providers []Provider
}

// NewChain builds a Chain. It fails with ErrNoProviders if none of the
// given providers reports itself available.
func NewChain(providers ...Provider) (*Chain, error) {
	kept := make([]Provider, 0, len(providers))
	available := 0
	for _, p := range providers {
		if p == nil {
			continue
		}
		kept = append(kept, p)
		if p.Available() {
			available++
		}
	}
	if available == 0 {
		return nil, ErrNoProviders
	}
	return &Chain{providers: kept}, nil
}

// Providers returns the names of the available providers in default order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

// Fetch returns the records for keyword. The result is never empty: if
// every available provider fails, a single sentinel blocked record carries
// the last failure's reason and evidence path.
func (c *Chain) Fetch(ctx context.Context, keyword string, maxItems int, opts models.FetchOptions) []models.SearchResultRecord {
	req := &FetchRequest{Keyword: keyword, MaxItems: maxItems, Options: opts}

	last := Failure(models.ReasonNoProviders, "", nil)
	for _, p := range c.order(opts.APIFirst) {
		if !p.Available() {
			continue
		}
		if err := ctx.Err(); err != nil {
			last = Failure(models.ReasonTimeout, last.DebugPath, err)
			break
		}

		out := c.call(ctx, p, req)
		metrics.RecordProviderCall(p.Name(), out.Label())

		if out.OK {
			slog.Info("provider succeeded",
				"provider", p.Name(),
				"keyword", keyword,
				"results", len(out.Results),
			)
			return toRecords(keyword, p.Source(), out.Results, maxItems)
		}

		slog.Warn("provider failed, falling back",
			"provider", p.Name(),
			"keyword", keyword,
			"reason", out.Reason,
			"debugPath", out.DebugPath,
			"error", out.Err,
		)
		last = out
	}

	return []models.SearchResultRecord{
		models.NewBlockedRecord(keyword, last.Reason, last.DebugPath),
	}
}

// call runs one provider and normalizes its outcome. A panic inside a
// provider becomes an exception failure, and an empty success becomes
// no_results so the chain moves on.
func (c *Chain) call(ctx context.Context, p Provider, req *FetchRequest) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("provider panicked", "provider", p.Name(), "keyword", req.Keyword, "panic", r)
			out = Failure(models.ReasonException, "", fmt.Errorf("provider panic: %v", r))
		}
	}()

	out = p.Fetch(ctx, req)
	if out.OK && len(out.Results) == 0 {
		out = Failure(models.ReasonNoResults, "", nil)
	}
	if !out.OK && out.Reason == "" {
		out.Reason = models.ReasonException
	}
	return out
}

// order returns providers in trial order. With apiFirst the API providers
// move ahead of the browser while keeping their relative order.
func (c *Chain) order(apiFirst bool) []Provider {
	if !apiFirst {
		return c.providers
	}
	ordered := make([]Provider, 0, len(c.providers))
	var browsers []Provider
	for _, p := range c.providers {
		if p.Source() == models.SourceBrowser {
			browsers = append(browsers, p)
			continue
		}
		ordered = append(ordered, p)
	}
	return append(ordered, browsers...)
}

// toRecords truncates to maxItems and numbers positions 1..n.
func toRecords(keyword string, source models.Source, results []models.Result, maxItems int) []models.SearchResultRecord {
	if maxItems > 0 && len(results) > maxItems {
		results = results[:maxItems]
	}
	records := make([]models.SearchResultRecord, 0, len(results))
	for i, r := range results {
		r.Position = i + 1
		records = append(records, models.NewResultRecord(keyword, source, r))
	}
	return records
}
