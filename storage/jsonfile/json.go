package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

// jsonBackend keeps every record in memory and rewrites the file as one
// indented JSON array on each save. The rewrite goes through a temp file
// and a rename, so a crash leaves either the old or the new file intact.
type jsonBackend struct {
	mu      sync.Mutex
	path    string
	records []storage.StoredRecord
}

// New creates a JSON-array-backed storage.Backend. Records already in the
// file are loaded so a restarted process keeps appending to them.
func New(path string) (storage.Backend, error) {
	b := &jsonBackend{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("jsonfile: read %s: %w", path, err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &b.records); err != nil {
			return nil, fmt.Errorf("jsonfile: parse %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create dir: %w", err)
	}
	return b, nil
}

func (b *jsonBackend) Save(ctx context.Context, runID string, records []models.SearchResultRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]storage.StoredRecord, len(b.records), len(b.records)+len(records))
	copy(next, b.records)
	for _, r := range records {
		next = append(next, storage.StoredRecord{RunID: runID, SearchResultRecord: r})
	}

	if err := b.write(next); err != nil {
		return err
	}
	b.records = next
	return nil
}

func (b *jsonBackend) write(records []storage.StoredRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("jsonfile: rename: %w", err)
	}
	return nil
}

func (b *jsonBackend) Records(ctx context.Context, runID string) ([]models.SearchResultRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []models.SearchResultRecord
	for _, r := range b.records {
		if runID == "" || r.RunID == runID {
			out = append(out, r.SearchResultRecord)
		}
	}
	return out, nil
}

func (b *jsonBackend) Close() error { return nil }
