package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/use-agent/serpscout/models"
)

func TestJSONBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "records.json")
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	ok := models.NewResultRecord("wireless mouse", models.SourceBrowser,
		models.Result{Title: "Mouse", Snippet: "fast", URL: "https://m.test", Position: 1})
	blocked := models.NewBlockedRecord("mechanical keyboard", models.ReasonCaptcha, "debug/kb.html")

	if err := b.Save(ctx, "run-1", []models.SearchResultRecord{ok}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := b.Save(ctx, "run-1", []models.SearchResultRecord{blocked}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := b.Save(ctx, "run-2", []models.SearchResultRecord{ok}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := b.Records(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records for run-1, got %d", len(got))
	}
	if got[0].Title != "Mouse" || !got[1].Blocked || *got[1].BlockedReason != "captcha" {
		t.Errorf("unexpected records %+v", got)
	}

	all, _ := b.Records(ctx, "")
	if len(all) != 3 {
		t.Errorf("Expected 3 records in total, got %d", len(all))
	}

	// The file is a single JSON array with snake_case keys.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	if len(raw) != 3 || raw[1]["run_id"] != "run-1" || raw[1]["blocked_reason"] != "captcha" {
		t.Errorf("unexpected file contents %v", raw)
	}
}

func TestJSONBackend_ReloadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	ctx := context.Background()

	b, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := models.NewResultRecord("kw", models.SourceAPIProviderA, models.Result{Title: "t", Position: 1})
	if err := b.Save(ctx, "run-1", []models.SearchResultRecord{rec}); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.Save(ctx, "run-2", []models.SearchResultRecord{rec}); err != nil {
		t.Fatal(err)
	}
	all, _ := reopened.Records(ctx, "")
	if len(all) != 2 {
		t.Errorf("expected earlier records to survive reopen, got %d", len(all))
	}
}

func TestJSONBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}
