package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresTracker persists completions as individual rows so the BI side can
// aggregate per process and per day.
type PostgresTracker struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tracker.
func NewPostgres(db *sql.DB) *PostgresTracker {
	return &PostgresTracker{db: db}
}

func (t *PostgresTracker) insert(ctx context.Context, process string, kind Kind) error {
	query := `
		INSERT INTO process_completions (process_name, kind, tracked_at)
		VALUES ($1, $2, $3)
	`
	if _, err := t.db.ExecContext(ctx, query, process, string(kind), time.Now().UTC()); err != nil {
		return fmt.Errorf("track %s completion: %w", kind, err)
	}
	return nil
}

// TrackTask records a full completion.
func (t *PostgresTracker) TrackTask(ctx context.Context, process string) error {
	return t.insert(ctx, process, KindFull)
}

// TrackPartialTask records a partial completion.
func (t *PostgresTracker) TrackPartialTask(ctx context.Context, process string) error {
	return t.insert(ctx, process, KindPartial)
}
