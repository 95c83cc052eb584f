package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS serp_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	keyword TEXT NOT NULL,
	title TEXT NOT NULL,
	snippet TEXT NOT NULL,
	url TEXT NOT NULL,
	position INTEGER NOT NULL,
	source TEXT NOT NULL,
	blocked BOOLEAN NOT NULL,
	blocked_reason TEXT,
	debug_path TEXT
);
CREATE INDEX IF NOT EXISTS serp_records_run_id ON serp_records (run_id);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, runID string, records []models.SearchResultRecord) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO serp_records (
		run_id, keyword, title, snippet, url, position, source, blocked, blocked_reason, debug_path
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			runID,
			r.Keyword,
			r.Title,
			r.Snippet,
			r.URL,
			r.Position,
			string(r.Source),
			r.Blocked,
			nullString(r.BlockedReason),
			nullString(r.DebugPath),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Records(ctx context.Context, runID string) ([]models.SearchResultRecord, error) {
	query := `SELECT keyword, title, snippet, url, position, source, blocked, blocked_reason, debug_path FROM serp_records`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id ASC`

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var out []models.SearchResultRecord
	for rows.Next() {
		var (
			r                 models.SearchResultRecord
			source            string
			reason, debugPath sql.NullString
		)
		if err := rows.Scan(&r.Keyword, &r.Title, &r.Snippet, &r.URL, &r.Position,
			&source, &r.Blocked, &reason, &debugPath); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		r.Source = models.Source(source)
		if reason.Valid {
			r.BlockedReason = &reason.String
		}
		if debugPath.Valid {
			r.DebugPath = &debugPath.String
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
