package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound reports an update against a job id that was never created.
	ErrNotFound = errors.New("job not found")
	// ErrDuplicateID reports a create with an id already in use.
	ErrDuplicateID = errors.New("job id already exists")
	// ErrTerminalState reports an update against a completed or failed job.
	ErrTerminalState = errors.New("job is in a terminal state")
	// ErrProgressRegression reports an update that would move progress backwards.
	ErrProgressRegression = errors.New("progress may not decrease")
)

// Store tracks job state for the lifetime of the daemon process. State is
// deliberately ephemeral: the backing SQLite database lives in memory and a
// restart forgets all jobs. A single connection serializes every
// read-modify-write cycle.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    stage TEXT NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    eta_seconds INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    request_json TEXT NOT NULL DEFAULT '',
    result_json TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Open initializes the in-memory job database.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the in-memory database alive and serializes access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection, discarding all job state.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const jobColumns = `id, status, stage, progress, eta_seconds, created_at, updated_at, request_json, result_json, error_message`

// Create inserts a new job in the QUEUED state.
func (s *Store) Create(ctx context.Context, id, requestJSON string) (*Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("job id is empty")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, status, stage, progress, eta_seconds, created_at, updated_at, request_json)
         VALUES (?, ?, ?, 0, NULL, ?, ?, ?)`,
		id,
		StatusQueued,
		StageQueued,
		timestamp,
		timestamp,
		requestJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job snapshot by identifier. A missing id yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update applies a partial update. Terminal jobs are frozen: any update
// against a COMPLETED or FAILED job fails with ErrTerminalState. Progress
// may never decrease.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load job for update: %w", err)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminalState, id, job.Status)
	}

	if patch.Status != nil {
		if !IsValidStatus(*patch.Status) {
			return nil, fmt.Errorf("unknown status %q", *patch.Status)
		}
		job.Status = *patch.Status
	}
	if patch.Stage != nil {
		if !IsValidStage(*patch.Stage) {
			return nil, fmt.Errorf("unknown stage %q", *patch.Stage)
		}
		job.Stage = *patch.Stage
	}
	if patch.Progress != nil {
		if *patch.Progress < job.Progress {
			return nil, fmt.Errorf("%w: %d -> %d", ErrProgressRegression, job.Progress, *patch.Progress)
		}
		job.Progress = *patch.Progress
	}
	if patch.ETASeconds != nil {
		eta := *patch.ETASeconds
		job.ETASeconds = &eta
	}
	if patch.ResultJSON != nil {
		job.ResultJSON = *patch.ResultJSON
	}
	if patch.ErrorMessage != nil {
		job.ErrorMessage = *patch.ErrorMessage
	}
	job.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, stage = ?, progress = ?, eta_seconds = ?, updated_at = ?,
             result_json = ?, error_message = ?
         WHERE id = ?`,
		job.Status,
		job.Stage,
		job.Progress,
		nullableInt(job.ETASeconds),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ResultJSON,
		job.ErrorMessage,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return job, nil
}

// Result returns the result document for a job, but only once the job has
// completed. The second return is false for unknown ids and for jobs in any
// other state.
func (s *Store) Result(ctx context.Context, id string) (string, bool, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if job == nil || job.Status != StatusCompleted || job.ResultJSON == "" {
		return "", false, nil
	}
	return job.ResultJSON, true, nil
}

// List returns all jobs ordered newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Stats returns aggregate job counts per lifecycle state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusQueued:
			stats.Queued = count
		case StatusRunning:
			stats.Running = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job       Job
		eta       sql.NullInt64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.Stage,
		&job.Progress,
		&eta,
		&createdAt,
		&updatedAt,
		&job.RequestJSON,
		&job.ResultJSON,
		&job.ErrorMessage,
	); err != nil {
		return nil, err
	}
	if eta.Valid {
		value := int(eta.Int64)
		job.ETASeconds = &value
	}
	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &job, nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
