// Package schedule repairs missing or invalid due dates using
// recurrence-pattern hints and the email's received date.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// weekdayHints maps recurrence-pattern words to weekdays, Sunday=0.
// Full names take precedence over abbreviations; all matching is
// whole-word so "sun" never fires inside "sunscreen".
var weekdayHints = []struct {
	day     time.Weekday
	pattern *regexp.Regexp
}{
	{time.Sunday, regexp.MustCompile(`(?i)\b(sunday|sun)\b`)},
	{time.Monday, regexp.MustCompile(`(?i)\b(monday|mon)\b`)},
	{time.Tuesday, regexp.MustCompile(`(?i)\b(tuesday|tues|tue)\b`)},
	{time.Wednesday, regexp.MustCompile(`(?i)\b(wednesday|weds|wed)\b`)},
	{time.Thursday, regexp.MustCompile(`(?i)\b(thursday|thurs|thur|thu)\b`)},
	{time.Friday, regexp.MustCompile(`(?i)\b(friday|fri)\b`)},
	{time.Saturday, regexp.MustCompile(`(?i)\b(saturday|sat)\b`)},
}

const reminderHour = 9

// FixDueDate returns dueDate unchanged when it is already a valid date.
// Otherwise it scans recurrencePattern for a weekday hint and computes
// the next strict occurrence after receivedAt (the same weekday rolls
// forward a full week), fixed at 09:00. When no hint is found it
// returns "" so callers omit the date rather than guess.
func FixDueDate(dueDate, recurrencePattern string, receivedAt time.Time) string {
	if IsValidDate(dueDate) {
		return dueDate
	}
	if strings.TrimSpace(recurrencePattern) == "" {
		return ""
	}

	for _, hint := range weekdayHints {
		if !hint.pattern.MatchString(recurrencePattern) {
			continue
		}
		next := NextWeekday(receivedAt, hint.day)
		return time.Date(next.Year(), next.Month(), next.Day(), reminderHour, 0, 0, 0, receivedAt.Location()).
			Format("2006-01-02T15:04:05")
	}
	return ""
}

// NextWeekday returns the next occurrence of day strictly after t.
func NextWeekday(t time.Time, day time.Weekday) time.Time {
	days := (int(day) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// IsValidDate reports whether s parses as RFC 3339, a local timestamp,
// or a plain calendar date.
func IsValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate parses the date formats the pipeline accepts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
