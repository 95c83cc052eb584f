package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/use-agent/serpscout/models"
)

func TestSQLiteBackend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "records.db")
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	records := []models.SearchResultRecord{
		models.NewResultRecord("wireless mouse", models.SourceBrowser,
			models.Result{Title: "One", Snippet: "a", URL: "https://1.test", Position: 1}),
		models.NewResultRecord("wireless mouse", models.SourceBrowser,
			models.Result{Title: "Two", Snippet: "b", URL: "https://2.test", Position: 2}),
		models.NewBlockedRecord("mechanical keyboard", models.ReasonUnusualTraffic, "debug/kb.html"),
	}

	if err := b.Save(ctx, "run-1", records); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}
	if err := b.Save(ctx, "run-2", records[:1]); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	got, err := b.Records(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(got))
	}

	if got[0].Title != "One" || got[1].Position != 2 || got[0].Source != models.SourceBrowser {
		t.Errorf("unexpected result records %+v", got[:2])
	}
	if got[0].BlockedReason != nil || got[0].DebugPath != nil {
		t.Errorf("unblocked record should have nil reason and path")
	}

	s := got[2]
	if !s.Blocked || s.Source != models.SourceBlocked {
		t.Errorf("Expected sentinel, got %+v", s)
	}
	if s.BlockedReason == nil || *s.BlockedReason != "unusual_traffic" {
		t.Errorf("unexpected blocked reason %v", s.BlockedReason)
	}
	if s.DebugPath == nil || *s.DebugPath != "debug/kb.html" {
		t.Errorf("unexpected debug path %v", s.DebugPath)
	}
	for _, r := range got {
		if err := r.Validate(); err != nil {
			t.Errorf("round-tripped record invalid: %v", err)
		}
	}

	all, err := b.Records(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 records in total, got %d", len(all))
	}
}
