package storage

import (
	"context"

	"github.com/use-agent/serpscout/models"
)

// StoredRecord is a record tagged with the run that produced it.
type StoredRecord struct {
	RunID string `json:"run_id"`
	models.SearchResultRecord
}

// Backend defines the interface for persisting acquired records.
// Save appends; it never rewrites records saved earlier for the same run.
type Backend interface {
	Save(ctx context.Context, runID string, records []models.SearchResultRecord) error
	Records(ctx context.Context, runID string) ([]models.SearchResultRecord, error)
	Close() error
}

// Nop discards everything. It is used when persistence is disabled.
type Nop struct{}

func (Nop) Save(context.Context, string, []models.SearchResultRecord) error { return nil }

func (Nop) Records(context.Context, string) ([]models.SearchResultRecord, error) {
	return nil, nil
}

func (Nop) Close() error { return nil }
