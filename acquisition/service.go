// Package acquisition runs keyword lists through the fallback chain one
// keyword at a time.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/storage"
)

// Fetcher returns the records for one keyword. It never returns an empty
// slice; engine.Chain is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, maxItems int, opts models.FetchOptions) []models.SearchResultRecord
}

// Settings are the injected defaults for a run.
type Settings struct {
	PerKeyword    int
	PolitenessMin time.Duration
	PolitenessMax time.Duration
	APIFirst      bool
	SaveTimeout   time.Duration
}

// Progress is called after each keyword with the records it produced.
type Progress func(done, total int, records []models.SearchResultRecord)

// Run is the outcome of one FetchAll call.
type Run struct {
	ID      string
	Records []models.SearchResultRecord
}

// Service owns the single browser identity, so only one run executes at
// a time; further calls wait for the current run to finish.
type Service struct {
	fetcher  Fetcher
	store    storage.Backend
	sleeper  engine.Sleeper
	settings Settings
	gate     chan struct{}
	newID    func() string
}

// New creates a Service. A nil store disables persistence and a nil
// sleeper uses real timers.
func New(fetcher Fetcher, store storage.Backend, sleeper engine.Sleeper, settings Settings) *Service {
	if store == nil {
		store = storage.Nop{}
	}
	if sleeper == nil {
		sleeper = engine.RealSleep
	}
	if settings.PerKeyword <= 0 {
		settings.PerKeyword = 10
	}
	if settings.SaveTimeout <= 0 {
		settings.SaveTimeout = 10 * time.Second
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		sleeper:  sleeper,
		settings: settings,
		gate:     make(chan struct{}, 1),
		newID:    uuid.NewString,
	}
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool { return len(s.gate) > 0 }

// Providers lists the available providers in default order, if the
// fetcher can report them.
func (s *Service) Providers() []string {
	if lister, ok := s.fetcher.(interface{ Providers() []string }); ok {
		return lister.Providers()
	}
	return nil
}

// Store returns the persistence backend.
func (s *Service) Store() storage.Backend { return s.store }

// FetchAll acquires records for every keyword in order. Every keyword
// contributes at least one record. The only errors are invalid input and
// a context that ends while another run holds the slot.
func (s *Service) FetchAll(ctx context.Context, keywords []string, perKeyword int, opts models.FetchOptions) ([]models.SearchResultRecord, error) {
	run, err := s.Run(ctx, keywords, perKeyword, opts, nil)
	if err != nil {
		return nil, err
	}
	return run.Records, nil
}

// Run is FetchAll with a run ID and a per-keyword progress callback.
func (s *Service) Run(ctx context.Context, keywords []string, perKeyword int, opts models.FetchOptions, progress Progress) (*Run, error) {
	keywords, err := normalizeKeywords(keywords)
	if err != nil {
		return nil, err
	}
	if perKeyword <= 0 {
		perKeyword = s.settings.PerKeyword
	}
	opts.APIFirst = opts.APIFirst || s.settings.APIFirst

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-s.gate }()

	run := &Run{ID: s.newID()}
	start := time.Now()
	slog.Info("acquisition started", "runID", run.ID, "keywords", len(keywords), "perKeyword", perKeyword, "apiFirst", opts.APIFirst)

	for i, kw := range keywords {
		if i > 0 {
			if err := s.sleeper.Sleep(ctx, engine.Between(s.settings.PolitenessMin, s.settings.PolitenessMax)); err != nil {
				run.Records = append(run.Records, s.abandon(ctx, run.ID, keywords[i:], progress, i, len(keywords))...)
				break
			}
		}
		if ctx.Err() != nil {
			run.Records = append(run.Records, s.abandon(ctx, run.ID, keywords[i:], progress, i, len(keywords))...)
			break
		}

		recs := s.fetcher.Fetch(ctx, kw, perKeyword, opts)
		if len(recs) == 0 {
			recs = []models.SearchResultRecord{models.NewBlockedRecord(kw, models.ReasonNoResults, "")}
		}
		run.Records = append(run.Records, recs...)
		metrics.RecordKeyword(string(recs[0].Source), len(recs))
		s.persist(ctx, run.ID, recs)

		if progress != nil {
			progress(i+1, len(keywords), recs)
		}
	}

	blocked := 0
	for _, r := range run.Records {
		if r.Blocked {
			blocked++
		}
	}
	slog.Info("acquisition finished",
		"runID", run.ID,
		"records", len(run.Records),
		"blockedKeywords", blocked,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

// acquire takes the run slot. An idle service always grants it, even to a
// dead context, so the run yields timeout sentinels instead of a busy error.
func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return models.NewAcquireError(models.ErrCodeBusy, "another acquisition run is in progress", ctx.Err())
	}
}

// abandon emits timeout sentinels for keywords that were never attempted.
func (s *Service) abandon(ctx context.Context, runID string, rest []string, progress Progress, done, total int) []models.SearchResultRecord {
	slog.Warn("acquisition cancelled, remaining keywords marked as timed out", "runID", runID, "remaining", len(rest), "error", ctx.Err())

	out := make([]models.SearchResultRecord, 0, len(rest))
	for i, kw := range rest {
		rec := []models.SearchResultRecord{models.NewBlockedRecord(kw, models.ReasonTimeout, "")}
		out = append(out, rec...)
		metrics.RecordKeyword(string(models.SourceBlocked), 1)
		if progress != nil {
			progress(done+i+1, total, rec)
		}
	}
	s.persist(ctx, runID, out)
	return out
}

// persist saves records without letting a storage failure or the run's
// cancellation affect acquisition.
func (s *Service) persist(ctx context.Context, runID string, recs []models.SearchResultRecord) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.SaveTimeout)
	defer cancel()

	if err := s.store.Save(saveCtx, runID, recs); err != nil {
		metrics.StorageFailures.Inc()
		slog.Error("failed to persist records, continuing", "runID", runID, "records", len(recs), "error", err)
	}
}

// ErrNoKeywords is wrapped by the error returned for an empty keyword list.
var ErrNoKeywords = errors.New("no keywords")

func normalizeKeywords(keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		return nil, models.NewAcquireError(models.ErrCodeInvalidInput, "at least one keyword is required", ErrNoKeywords)
	}
	out := make([]string, 0, len(keywords))
	for i, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return nil, models.NewAcquireError(models.ErrCodeInvalidInput, fmt.Sprintf("keyword %d is empty", i), nil)
		}
		out = append(out, kw)
	}
	return out, nil
}
