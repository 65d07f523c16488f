package schedule

import (
	"testing"
	"time"
)

func TestFixDueDateValidPassthrough(t *testing.T) {
	received := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	tests := []string{
		"2024-03-05",
		"2024-03-05T09:00:00",
		"2024-03-05T09:00:00Z",
	}
	for _, due := range tests {
		if got := FixDueDate(due, "every Tuesday", received); got != due {
			t.Errorf("FixDueDate(%q) = %q, want unchanged", due, got)
		}
	}
}

func TestFixDueDateFromRecurrence(t *testing.T) {
	// 2024-03-04 is a Monday.
	received := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDate string
		pattern string
		want    string
	}{
		{"spec example", "", "every Tuesday", "2024-03-05T09:00:00"},
		{"invalid due date repaired", "next week sometime", "every Tuesday", "2024-03-05T09:00:00"},
		{"abbreviation", "", "weekly on Thurs", "2024-03-07T09:00:00"},
		{"case insensitive", "", "EVERY FRIDAY", "2024-03-08T09:00:00"},
		{"same weekday rolls a week", "", "every Monday", "2024-03-11T09:00:00"},
		{"sunday", "", "sundays... every sun", "2024-03-10T09:00:00"},
		{"no day found", "", "every so often", ""},
		{"empty pattern", "", "", ""},
		{"abbrev not inside word", "", "pack sunscreen every Friday", "2024-03-08T09:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixDueDate(tt.dueDate, tt.pattern, received); got != tt.want {
				t.Errorf("FixDueDate(%q, %q) = %q, want %q", tt.dueDate, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestNextWeekday(t *testing.T) {
	monday := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	next := NextWeekday(monday, time.Tuesday)
	if next.Day() != 5 {
		t.Errorf("next Tuesday after Monday = day %d, want 5", next.Day())
	}

	// Strictly after: Monday -> next Monday is +7.
	next = NextWeekday(monday, time.Monday)
	if next.Day() != 11 {
		t.Errorf("next Monday after Monday = day %d, want 11", next.Day())
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-01-02", "2024-01-02T10:00:00", "2024-01-02T10:00:00Z"}
	for _, s := range valid {
		if !IsValidDate(s) {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "tomorrow", "unknown", "02/01/2024", "2024-13-40"}
	for _, s := range invalid {
		if IsValidDate(s) {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}
