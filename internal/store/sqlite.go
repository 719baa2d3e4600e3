// Package store persists batch job snapshots and validation results in a
// local SQLite database so interrupted runs can resume.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.JobStore backed by a local SQLite database.
// Items and results are stored as JSON documents; the verdicts table holds
// a flat queryable copy for reporting.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	mode       TEXT NOT NULL DEFAULT '',
	batch_size INTEGER NOT NULL,
	cursor     INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL,
	items      TEXT NOT NULL,
	results    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS verdicts (
	job_id       TEXT NOT NULL,
	address      TEXT NOT NULL,
	final_status TEXT NOT NULL,
	confidence   REAL NOT NULL DEFAULT 0,
	recorded_at  TEXT NOT NULL,
	PRIMARY KEY (job_id, address)
);

CREATE INDEX IF NOT EXISTS idx_verdicts_status ON verdicts(final_status);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveJob upserts a full job snapshot and refreshes the flat verdict rows.
func (s *SQLiteStore) SaveJob(ctx context.Context, job *domain.BatchJob) error {
	items, err := json.Marshal(job.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, mode, batch_size, cursor, status, items, results, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cursor     = excluded.cursor,
			status     = excluded.status,
			results    = excluded.results,
			updated_at = excluded.updated_at
	`, job.ID, string(job.Kind), string(job.Mode), job.BatchSize, job.Cursor, string(job.Status),
		string(items), string(results),
		job.CreatedAt.Format(time.RFC3339Nano), job.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}

	if job.Kind == domain.JobValidate {
		if err := upsertVerdicts(ctx, tx, job); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertVerdicts(ctx context.Context, tx *sql.Tx, job *domain.BatchJob) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts (job_id, address, final_status, confidence, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id, address) DO UPDATE SET
			final_status = excluded.final_status,
			confidence   = excluded.confidence,
			recorded_at  = excluded.recorded_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range job.Results {
		if r == nil || r.Verdict == nil {
			continue
		}
		_, err := stmt.ExecContext(ctx, job.ID, r.Verdict.Address,
			string(r.Verdict.FinalStatus), r.Verdict.Confidence,
			r.CompletedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("upsert verdict for %s: %w", r.Verdict.Address, err)
		}
	}
	return nil
}

// ErrJobNotFound is returned by LoadJob for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// LoadJob retrieves a job snapshot by ID.
func (s *SQLiteStore) LoadJob(ctx context.Context, id string) (*domain.BatchJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, mode, batch_size, cursor, status, items, results, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)

	var job domain.BatchJob
	var kind, mode, status, items, results, createdAt, updatedAt string
	err := row.Scan(&job.ID, &kind, &mode, &job.BatchSize, &job.Cursor, &status,
		&items, &results, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}

	job.Kind = domain.JobKind(kind)
	job.Mode = domain.ValidationMode(mode)
	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal([]byte(items), &job.Items); err != nil {
		return nil, fmt.Errorf("decode items for job %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(results), &job.Results); err != nil {
		return nil, fmt.Errorf("decode results for job %s: %w", id, err)
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at for job %s: %w", id, err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at for job %s: %w", id, err)
	}
	return &job, nil
}

// ListJobs returns summaries of stored jobs, newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context) ([]JobSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, mode, cursor, status, updated_at FROM jobs
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []JobSummary
	for rows.Next() {
		var sum JobSummary
		var kind, mode, status, updatedAt string
		if err := rows.Scan(&sum.ID, &kind, &mode, &sum.Done, &status, &updatedAt); err != nil {
			return nil, err
		}
		sum.Kind = domain.JobKind(kind)
		sum.Mode = domain.ValidationMode(mode)
		sum.Status = domain.JobStatus(status)
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// JobSummary is a lightweight listing row for stored jobs.
type JobSummary struct {
	ID        string
	Kind      domain.JobKind
	Mode      domain.ValidationMode
	Done      int
	Status    domain.JobStatus
	UpdatedAt time.Time
}

// CountVerdictsByStatus aggregates stored verdicts for one job.
func (s *SQLiteStore) CountVerdictsByStatus(ctx context.Context, jobID string) (map[domain.FinalStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT final_status, COUNT(*) FROM verdicts WHERE job_id = ? GROUP BY final_status
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.FinalStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.FinalStatus(status)] = n
	}
	return counts, rows.Err()
}
