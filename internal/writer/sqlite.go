package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/go-scripts/headlines/internal/types"

	_ "modernc.org/sqlite"
)

const schema = `
create table if not exists runs (
	id text primary key,
	term text not null,
	url text not null,
	created_at text not null
);

create table if not exists headlines (
	run_id text not null references runs(id),
	term text not null,
	idx integer not null,
	published text not null,
	headline text not null,
	primary key (run_id, idx)
);
`

// Store keeps every run's records in one SQLite database
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes records under a new run id in a single transaction
func (s *Store) Save(ctx context.Context, d types.QueryDescriptor, records []types.HeadlineRecord) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"insert into runs (id, term, url, created_at) values (?, ?, ?, ?)",
		runID, d.Term, d.URL, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			"insert into headlines (run_id, term, idx, published, headline) values (?, ?, ?, ?, ?)",
			runID, d.Term, r.Index, r.PublishedAt, r.Headline)
		if err != nil {
			return "", fmt.Errorf("failed to insert record %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return runID, nil
}

// Records returns a run's records in index order
func (s *Store) Records(ctx context.Context, runID string) ([]types.HeadlineRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"select idx, published, headline from headlines where run_id = ? order by idx", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.HeadlineRecord
	for rows.Next() {
		var r types.HeadlineRecord
		if err := rows.Scan(&r.Index, &r.PublishedAt, &r.Headline); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Runs returns the run ids recorded for term, oldest first
func (s *Store) Runs(ctx context.Context, term string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"select id from runs where term = ? order by created_at, rowid", term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
