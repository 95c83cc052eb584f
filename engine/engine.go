package engine

import (
	"context"

	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/models"
)

// Provider is the interface that all result sources must implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "browser", "serpapi", "cse").
	Name() string

	// Source returns the record source tag for results from this provider.
	Source() models.Source

	// Available reports whether the provider is configured. Unavailable
	// providers are skipped by the chain without counting as a failure.
	Available() bool

	// Fetch performs one attempt for the given request. It never panics
	// outward and never returns an error; failures are carried in the Outcome.
	Fetch(ctx context.Context, req *FetchRequest) Outcome
}

// FetchRequest contains everything a provider needs to fetch one keyword.
type FetchRequest struct {
	Keyword  string
	MaxItems int
	Options  models.FetchOptions
}

// Outcome is the result of one provider attempt: either a success carrying
// results, or a failure carrying a reason and optional evidence.
type Outcome struct {
	OK        bool
	Results   []models.Result
	Reason    models.Reason
	DebugPath string
	Err       error
}

// Success wraps results in a successful Outcome.
func Success(results []models.Result) Outcome {
	return Outcome{OK: true, Results: results}
}

// Failure builds a failed Outcome. debugPath and err may be empty.
func Failure(reason models.Reason, debugPath string, err error) Outcome {
	return Outcome{Reason: reason, DebugPath: debugPath, Err: err}
}

// Failed reports whether the attempt failed.
func (o Outcome) Failed() bool { return !o.OK }

// Label returns a short metrics label for the outcome.
func (o Outcome) Label() string {
	if o.OK {
		return metrics.OutcomeSuccess
	}
	return string(o.Reason)
}
