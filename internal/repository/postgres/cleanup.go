package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// CleanupRepo implements analyzer.Cleanup: after a batch pass it
// auto-completes todos whose due date is long past and prunes derived
// reminder events that already fired.
type CleanupRepo struct {
	db *sql.DB
	// graceDays is how long past its due date a todo may linger before
	// auto-completion.
	graceDays int
}

// NewCleanupRepo creates a Postgres-backed cleanup pass. graceDays <= 0
// selects the default of 7.
func NewCleanupRepo(db *sql.DB, graceDays int) *CleanupRepo {
	if graceDays <= 0 {
		graceDays = 7
	}
	return &CleanupRepo{db: db, graceDays: graceDays}
}

func (r *CleanupRepo) Run(ctx context.Context, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE homeroom_todos
		SET completed = true
		WHERE owner_id = $1 AND completed = false
		  AND due_date IS NOT NULL
		  AND due_date::timestamp < NOW() - make_interval(days => $2)
	`, ownerID, r.graceDays)
	if err != nil {
		return fmt.Errorf("auto-complete stale todos: %w", err)
	}
	todos, _ := res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `
		DELETE FROM homeroom_events
		WHERE owner_id = $1 AND inferred = true
		  AND event_date IS NOT NULL
		  AND event_date::date < NOW()::date
	`, ownerID)
	if err != nil {
		return fmt.Errorf("prune fired reminders: %w", err)
	}
	events, _ := res.RowsAffected()

	if todos > 0 || events > 0 {
		log.Printf("[Cleanup] Owner %s: %d stale todos completed, %d fired reminders pruned", ownerID, todos, events)
	}
	return nil
}
