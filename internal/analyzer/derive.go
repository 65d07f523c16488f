package analyzer

import (
	"strings"

	"github.com/homeroomhq/homeroom/internal/domain"
	"github.com/homeroomhq/homeroom/internal/schedule"
)

const (
	eveningReminderTime = "19:00"
	morningReminderTime = "07:00"
)

// PackReminders derives preparation reminder events from a packing todo
// with a resolved due date: one the evening before at 19:00 and one the
// morning of at 07:00. Non-packing todos and todos without a parseable
// due date derive nothing.
func PackReminders(todo *domain.Todo) []domain.Event {
	if !isPackTodo(todo.Description) || todo.DueDate == "" {
		return nil
	}
	due, err := schedule.ParseDate(todo.DueDate)
	if err != nil {
		return nil
	}

	base := domain.Event{
		OwnerID:       todo.OwnerID,
		ChildName:     todo.ChildName,
		SourceEmailID: todo.SourceEmailID,
		Confidence:    todo.Confidence,
		Inferred:      true,
	}

	evening := base
	evening.Title = "Prepare: " + todo.Description
	evening.Date = due.AddDate(0, 0, -1).Format("2006-01-02")
	evening.Time = eveningReminderTime

	morning := base
	morning.Title = "Reminder: " + todo.Description
	morning.Date = due.Format("2006-01-02")
	morning.Time = morningReminderTime

	return []domain.Event{evening, morning}
}

func isPackTodo(description string) bool {
	return strings.Contains(strings.ToLower(description), "pack")
}
