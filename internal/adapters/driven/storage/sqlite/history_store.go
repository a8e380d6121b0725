package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.RunHistoryStore = (*runHistoryStore)(nil)

// runHistoryStore wraps Store to implement driven.RunHistoryStore.
type runHistoryStore struct {
	store *Store
}

// Record saves a finished run. Recording the same ID twice replaces it.
func (s *runHistoryStore) Record(ctx context.Context, run *domain.SyncRun) error {
	uploads := run.Uploads
	if uploads == nil {
		uploads = []string{}
	}
	uploadsJSON, err := json.Marshal(uploads)
	if err != nil {
		return fmt.Errorf("marshaling uploads: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, incremental, started_at, finished_at, status,
			invoices, lines, products, checkpoint, error, uploads
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			incremental = excluded.incremental,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			status = excluded.status,
			invoices = excluded.invoices,
			lines = excluded.lines,
			products = excluded.products,
			checkpoint = excluded.checkpoint,
			error = excluded.error,
			uploads = excluded.uploads
	`,
		run.ID,
		boolToInt(run.Incremental),
		formatTime(run.StartedAt),
		formatNullableTime(run.FinishedAt),
		string(run.Status),
		run.Invoices,
		run.Lines,
		run.Products,
		nullString(run.Checkpoint),
		nullString(run.Error),
		string(uploadsJSON),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *runHistoryStore) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		return []domain.SyncRun{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, incremental, started_at, finished_at, status,
			invoices, lines, products, checkpoint, error, uploads
		FROM sync_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.SyncRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Prune keeps only the keep most recent runs.
func (s *runHistoryStore) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM sync_runs
			ORDER BY started_at DESC, rowid DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (*domain.SyncRun, error) {
	var (
		run         domain.SyncRun
		incremental int
		startedAt   string
		finishedAt  sql.NullString
		status      string
		checkpoint  sql.NullString
		errMsg      sql.NullString
		uploads     string
	)

	err := rows.Scan(
		&run.ID, &incremental, &startedAt, &finishedAt, &status,
		&run.Invoices, &run.Lines, &run.Products, &checkpoint, &errMsg, &uploads,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Incremental = incremental != 0
	run.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	run.FinishedAt = parseNullableTime(finishedAt)
	run.Status = domain.RunStatus(status)
	run.Checkpoint = checkpoint.String
	run.Error = errMsg.String

	if err := json.Unmarshal([]byte(uploads), &run.Uploads); err != nil {
		return nil, fmt.Errorf("unmarshaling uploads: %w", err)
	}
	return &run, nil
}
