package workqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"joblog-audit/internal/sentinel"
)

// PostgresStore persists work items in PostgreSQL. Claims go through
// FOR UPDATE SKIP LOCKED so a second worker instance cannot double-claim,
// even though a run is normally single-worker.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed queue store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add enqueues a pending item.
func (s *PostgresStore) Add(ctx context.Context, reference string) (*WorkItem, error) {
	query := `
		INSERT INTO work_items (id, reference, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, reference, status, coalesce(fail_reason, ''), created_at, updated_at
	`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, uuid.New(), reference, StatusPending))
	if err != nil {
		return nil, fmt.Errorf("add work item: %w", err)
	}
	return item, nil
}

// NextPending claims the oldest pending item.
func (s *PostgresStore) NextPending(ctx context.Context) (*WorkItem, error) {
	query := `
		UPDATE work_items
		SET status = $1, updated_at = now()
		WHERE id = (
			SELECT id FROM work_items
			WHERE status = $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, reference, status, coalesce(fail_reason, ''), created_at, updated_at
	`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, StatusInProgress, StatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no pending work items: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("claim work item: %w", err)
	}
	return item, nil
}

// MarkCompleted finalizes a claimed item.
func (s *PostgresStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.finalize(ctx, id, StatusCompleted, "")
}

// MarkFailed finalizes a claimed item with a reason.
func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.finalize(ctx, id, StatusFailed, reason)
}

func (s *PostgresStore) finalize(ctx context.Context, id uuid.UUID, status Status, reason string) error {
	query := `
		UPDATE work_items
		SET status = $1, fail_reason = nullif($2, ''), updated_at = now()
		WHERE id = $3
	`
	res, err := s.db.ExecContext(ctx, query, status, reason, id)
	if err != nil {
		return fmt.Errorf("finalize work item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize work item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("work item %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

// FindByReference lists items for a reference in the given status.
func (s *PostgresStore) FindByReference(ctx context.Context, reference string, status Status) ([]WorkItem, error) {
	query := `
		SELECT id, reference, status, coalesce(fail_reason, ''), created_at, updated_at
		FROM work_items
		WHERE reference = $1 AND status = $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, reference, status)
	if err != nil {
		return nil, fmt.Errorf("find work items by reference: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var items []WorkItem
	for rows.Next() {
		var item WorkItem
		if err := rows.Scan(&item.ID, &item.Reference, &item.Status, &item.FailReason,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work items: %w", err)
	}
	return items, nil
}

// CountByStatus reports how many items are in the given status.
func (s *PostgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM work_items WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("count work items by status: %w", err)
	}
	return count, nil
}

// ClearPending drops all pending items.
func (s *PostgresStore) ClearPending(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM work_items WHERE status = $1`, StatusPending); err != nil {
		return fmt.Errorf("clear pending work items: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*WorkItem, error) {
	var item WorkItem
	if err := row.Scan(&item.ID, &item.Reference, &item.Status, &item.FailReason,
		&item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
