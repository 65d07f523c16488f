package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/internal/domain"
)

func TestPackReminders(t *testing.T) {
	todo := &domain.Todo{
		OwnerID:       "owner-1",
		Description:   "Pack swim gear",
		DueDate:       "2024-03-08T09:00:00",
		ChildName:     "Riley",
		SourceEmailID: "em-1",
		Confidence:    0.85,
	}

	reminders := PackReminders(todo)
	require.Len(t, reminders, 2)

	evening := reminders[0]
	assert.Equal(t, "Prepare: Pack swim gear", evening.Title)
	assert.Equal(t, "2024-03-07", evening.Date)
	assert.Equal(t, "19:00", evening.Time)

	morning := reminders[1]
	assert.Equal(t, "Reminder: Pack swim gear", morning.Title)
	assert.Equal(t, "2024-03-08", morning.Date)
	assert.Equal(t, "07:00", morning.Time)

	for _, r := range reminders {
		assert.True(t, r.Inferred)
		assert.Equal(t, "Riley", r.ChildName)
		assert.Equal(t, "em-1", r.SourceEmailID)
		assert.Equal(t, 0.85, r.Confidence)
	}
}

func TestPackRemindersSkipsNonPackTodos(t *testing.T) {
	tests := []struct {
		name string
		todo domain.Todo
	}{
		{"not a packing todo", domain.Todo{Description: "Sign permission slip", DueDate: "2024-03-08"}},
		{"no due date", domain.Todo{Description: "Pack lunch"}},
		{"unparseable due date", domain.Todo{Description: "Pack lunch", DueDate: "sometime soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, PackReminders(&tt.todo))
		})
	}
}

func TestPackRemindersCaseInsensitive(t *testing.T) {
	todo := &domain.Todo{Description: "PACK the overnight bag", DueDate: "2024-05-10"}
	assert.Len(t, PackReminders(todo), 2)
}

func TestPackRemindersMonthBoundary(t *testing.T) {
	todo := &domain.Todo{Description: "Pack costume", DueDate: "2024-03-01"}
	reminders := PackReminders(todo)
	require.Len(t, reminders, 2)
	assert.Equal(t, "2024-02-29", reminders[0].Date)
}
