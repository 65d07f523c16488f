package domain

import "time"

// Todo is a persisted action item extracted from an email.
type Todo struct {
	ID                string    `json:"id" db:"id"`
	OwnerID           string    `json:"owner_id" db:"owner_id"`
	Description       string    `json:"description" db:"description"`
	DueDate           string    `json:"due_date,omitempty" db:"due_date"`
	ChildName         string    `json:"child_name,omitempty" db:"child_name"`
	SourceEmailID     string    `json:"source_email_id" db:"source_email_id"`
	Confidence        float64   `json:"confidence" db:"confidence"`
	Recurring         bool      `json:"recurring" db:"recurring"`
	RecurrencePattern string    `json:"recurrence_pattern,omitempty" db:"recurrence_pattern"`
	Inferred          bool      `json:"inferred" db:"inferred"`
	Completed         bool      `json:"completed" db:"completed"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Event is a persisted calendar item extracted from an email, or derived
// from a todo (preparation reminders).
type Event struct {
	ID                string    `json:"id" db:"id"`
	OwnerID           string    `json:"owner_id" db:"owner_id"`
	Title             string    `json:"title" db:"title"`
	Date              string    `json:"date,omitempty" db:"date"`
	Time              string    `json:"time,omitempty" db:"time"`
	Location          string    `json:"location,omitempty" db:"location"`
	ChildName         string    `json:"child_name,omitempty" db:"child_name"`
	SourceEmailID     string    `json:"source_email_id" db:"source_email_id"`
	Confidence        float64   `json:"confidence" db:"confidence"`
	Recurring         bool      `json:"recurring" db:"recurring"`
	RecurrencePattern string    `json:"recurrence_pattern,omitempty" db:"recurrence_pattern"`
	Inferred          bool      `json:"inferred" db:"inferred"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
