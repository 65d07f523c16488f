package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/homeroomhq/homeroom/internal/domain"
)

// TodoRepo implements analyzer.TodoStore against PostgreSQL.
type TodoRepo struct{ db *sql.DB }

// NewTodoRepo creates a Postgres-backed todo repository.
func NewTodoRepo(db *sql.DB) *TodoRepo { return &TodoRepo{db: db} }

func (r *TodoRepo) CreateTodo(ctx context.Context, t *domain.Todo) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO homeroom_todos
			(id, owner_id, description, due_date, child_name, source_email_id,
			 confidence, recurring, recurrence_pattern, inferred, completed, created_at)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8, $9, $10, false, NOW())
	`, t.ID, t.OwnerID, t.Description, t.DueDate, t.ChildName, t.SourceEmailID,
		t.Confidence, t.Recurring, t.RecurrencePattern, t.Inferred)
	if err != nil {
		return "", fmt.Errorf("create todo: %w", err)
	}
	return t.ID, nil
}

// EventRepo implements analyzer.EventStore against PostgreSQL.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event repository.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) CreateEvent(ctx context.Context, e *domain.Event) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO homeroom_events
			(id, owner_id, title, event_date, event_time, location, child_name,
			 source_email_id, confidence, recurring, recurrence_pattern, inferred, created_at)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9, $10, $11, $12, NOW())
	`, e.ID, e.OwnerID, e.Title, e.Date, e.Time, e.Location, e.ChildName,
		e.SourceEmailID, e.Confidence, e.Recurring, e.RecurrencePattern, e.Inferred)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return e.ID, nil
}
