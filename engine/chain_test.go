package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/use-agent/serpscout/models"
)

// fakeProvider replays outcomes in order, repeating the last one.
type fakeProvider struct {
	name      string
	source    models.Source
	available bool
	outcomes  []Outcome
	calls     int
	panicMsg  string
	lastReq   *FetchRequest
}

func (f *fakeProvider) Name() string          { return f.name }
func (f *fakeProvider) Source() models.Source { return f.source }
func (f *fakeProvider) Available() bool       { return f.available }

func (f *fakeProvider) Fetch(_ context.Context, req *FetchRequest) Outcome {
	f.calls++
	f.lastReq = req
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	i := f.calls - 1
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	return f.outcomes[i]
}

func results(n int) []models.Result {
	out := make([]models.Result, n)
	for i := range out {
		out[i] = models.Result{Title: "r", URL: "https://example.com", Position: i + 1}
	}
	return out
}

func TestChain_FallsBackToSecond(t *testing.T) {
	a := &fakeProvider{name: "a", source: models.SourceAPIProviderA, available: true,
		outcomes: []Outcome{Failure(models.ReasonException, "", errors.New("boom"))}}
	b := &fakeProvider{name: "b", source: models.SourceAPIProviderB, available: true,
		outcomes: []Outcome{Success(results(3))}}
	c := &fakeProvider{name: "c", source: models.SourceAPIProviderB, available: true,
		outcomes: []Outcome{Success(results(1))}}

	chain, err := NewChain(a, b, c)
	if err != nil {
		t.Fatal(err)
	}

	recs := chain.Fetch(context.Background(), "kw", 10, models.FetchOptions{})
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, r := range recs {
		if r.Source != models.SourceAPIProviderB || r.Blocked || r.Keyword != "kw" || r.Position != i+1 {
			t.Errorf("unexpected record %+v", r)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("record %d invalid: %v", i, err)
		}
	}
	if c.calls != 0 {
		t.Errorf("provider after first success was invoked %d times", c.calls)
	}
}

func TestChain_AllFailReturnsSentinel(t *testing.T) {
	a := &fakeProvider{name: "browser", source: models.SourceBrowser, available: true,
		outcomes: []Outcome{Failure(models.ReasonCaptcha, "debug/a.html", nil)}}
	b := &fakeProvider{name: "serpapi", source: models.SourceAPIProviderA, available: true,
		outcomes: []Outcome{Failure(models.ReasonNoResults, "", nil)}}

	chain, _ := NewChain(a, b)
	recs := chain.Fetch(context.Background(), "kw", 10, models.FetchOptions{})

	if len(recs) != 1 {
		t.Fatalf("expected exactly one sentinel, got %d", len(recs))
	}
	r := recs[0]
	if !r.Blocked || r.Source != models.SourceBlocked || r.BlockedReason == nil {
		t.Fatalf("unexpected sentinel %+v", r)
	}
	if *r.BlockedReason != string(models.ReasonNoResults) {
		t.Errorf("expected most recent reason, got %q", *r.BlockedReason)
	}
	if r.DebugPath != nil {
		t.Errorf("expected last failure's (empty) debug path, got %q", *r.DebugPath)
	}
	if err := r.Validate(); err != nil {
		t.Error(err)
	}
}

func TestChain_SkipsUnavailable(t *testing.T) {
	missing := &fakeProvider{name: "cse", source: models.SourceAPIProviderB, available: false,
		outcomes: []Outcome{Success(results(1))}}
	browser := &fakeProvider{name: "browser", source: models.SourceBrowser, available: true,
		outcomes: []Outcome{Failure(models.ReasonRobotChallenge, "debug/r.html", nil)}}

	chain, err := NewChain(browser, missing)
	if err != nil {
		t.Fatal(err)
	}
	recs := chain.Fetch(context.Background(), "kw", 5, models.FetchOptions{})

	if missing.calls != 0 {
		t.Error("unavailable provider should not be called")
	}
	if len(recs) != 1 || *recs[0].BlockedReason != string(models.ReasonRobotChallenge) || *recs[0].DebugPath != "debug/r.html" {
		t.Errorf("unexpected records %+v", recs)
	}
	if got := chain.Providers(); len(got) != 1 || got[0] != "browser" {
		t.Errorf("Providers() = %v", got)
	}
}

func TestChain_APIFirst(t *testing.T) {
	browser := &fakeProvider{name: "browser", source: models.SourceBrowser, available: true,
		outcomes: []Outcome{Success(results(2))}}
	api := &fakeProvider{name: "serpapi", source: models.SourceAPIProviderA, available: true,
		outcomes: []Outcome{Success(results(4))}}

	chain, _ := NewChain(browser, api)
	recs := chain.Fetch(context.Background(), "kw", 10, models.FetchOptions{APIFirst: true})

	if browser.calls != 0 {
		t.Error("browser should not run when the API provider succeeds first")
	}
	if len(recs) != 4 || recs[0].Source != models.SourceAPIProviderA {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestChain_TruncatesAndRenumbers(t *testing.T) {
	res := []models.Result{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	p := &fakeProvider{name: "serpapi", source: models.SourceAPIProviderA, available: true,
		outcomes: []Outcome{Success(res)}}

	chain, _ := NewChain(p)
	recs := chain.Fetch(context.Background(), "kw", 2, models.FetchOptions{})

	if len(recs) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(recs))
	}
	for i, r := range recs {
		if r.Position != i+1 {
			t.Errorf("record %d position %d", i, r.Position)
		}
	}
	if p.lastReq.MaxItems != 2 || p.lastReq.Keyword != "kw" {
		t.Errorf("unexpected request %+v", p.lastReq)
	}
}

func TestChain_EmptySuccessFallsThrough(t *testing.T) {
	a := &fakeProvider{name: "a", source: models.SourceAPIProviderA, available: true,
		outcomes: []Outcome{Success(nil)}}
	b := &fakeProvider{name: "b", source: models.SourceAPIProviderB, available: true,
		outcomes: []Outcome{Success(results(1))}}

	chain, _ := NewChain(a, b)
	recs := chain.Fetch(context.Background(), "kw", 5, models.FetchOptions{})
	if len(recs) != 1 || recs[0].Source != models.SourceAPIProviderB {
		t.Errorf("expected fallback to b, got %+v", recs)
	}
}

func TestChain_PanicBecomesException(t *testing.T) {
	p := &fakeProvider{name: "browser", source: models.SourceBrowser, available: true, panicMsg: "driver gone"}

	chain, _ := NewChain(p)
	recs := chain.Fetch(context.Background(), "kw", 5, models.FetchOptions{})
	if len(recs) != 1 || *recs[0].BlockedReason != string(models.ReasonException) {
		t.Errorf("expected exception sentinel, got %+v", recs)
	}
}

func TestChain_CancelledContext(t *testing.T) {
	p := &fakeProvider{name: "browser", source: models.SourceBrowser, available: true,
		outcomes: []Outcome{Success(results(1))}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain, _ := NewChain(p)
	recs := chain.Fetch(ctx, "kw", 5, models.FetchOptions{})
	if p.calls != 0 {
		t.Error("no provider should run after cancellation")
	}
	if len(recs) != 1 || *recs[0].BlockedReason != string(models.ReasonTimeout) {
		t.Errorf("expected timeout sentinel, got %+v", recs)
	}
}

func TestNewChain_NoProviders(t *testing.T) {
	off := &fakeProvider{name: "cse", source: models.SourceAPIProviderB}
	if _, err := NewChain(off); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}
	if _, err := NewChain(); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders for empty chain, got %v", err)
	}
}
