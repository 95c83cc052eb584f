package cse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/models"
)

func TestFetch_ClampsNumAndMapsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/customsearch/v1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if q.Get("num") != "10" || q.Get("cx") != "engine" || q.Get("key") != "k" || q.Get("q") != "kw" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"A","snippet":"a","link":"https://a.test"},{"title":"B","snippet":"b","link":"https://b.test"}]}`))
	}))
	defer srv.Close()

	p := New(config.CSEConfig{APIKey: "k", CX: "engine", BaseURL: srv.URL})
	out := p.Fetch(context.Background(), &engine.FetchRequest{Keyword: "kw", MaxItems: 25})

	if !out.OK || len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", out)
	}
	if out.Results[1] != (models.Result{Title: "B", Snippet: "b", URL: "https://b.test", Position: 2}) {
		t.Errorf("unexpected second result %+v", out.Results[1])
	}
}

func TestFetch_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"searchInformation":{"totalResults":"0"}}`))
	}))
	defer srv.Close()

	p := New(config.CSEConfig{APIKey: "k", CX: "engine", BaseURL: srv.URL})
	out := p.Fetch(context.Background(), &engine.FetchRequest{Keyword: "kw", MaxItems: 5})
	if out.Reason != models.ReasonNoResults {
		t.Errorf("expected no_results, got %+v", out)
	}
}

func TestFetch_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	}))
	defer srv.Close()

	p := New(config.CSEConfig{APIKey: "k", CX: "engine", BaseURL: srv.URL})
	out := p.Fetch(context.Background(), &engine.FetchRequest{Keyword: "kw", MaxItems: 5})
	if out.Reason != models.ReasonException {
		t.Errorf("expected exception, got %+v", out)
	}
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		cfg  config.CSEConfig
		want bool
	}{
		{config.CSEConfig{}, false},
		{config.CSEConfig{APIKey: "k"}, false},
		{config.CSEConfig{CX: "c"}, false},
		{config.CSEConfig{APIKey: "k", CX: "c"}, true},
	}
	for _, tt := range tests {
		if got := New(tt.cfg).Available(); got != tt.want {
			t.Errorf("Available(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
