package logger

import (
	"regexp"
	"strings"
	"sync"
)

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

var (
	namesMu      sync.RWMutex
	nameSet      = map[string]struct{}{}
	namePatterns []*regexp.Regexp
)

// RegisterNames adds child names to the redaction set. Registered names
// are masked wherever they appear in log messages and field values.
// Registering the same name again is a no-op, so callers can register
// on every extraction pass.
func RegisterNames(names ...string) {
	namesMu.Lock()
	defer namesMu.Unlock()
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, seen := nameSet[key]; seen {
			continue
		}
		nameSet[key] = struct{}{}
		namePatterns = append(namePatterns,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(n)+`\b`))
	}
}

// ClearNames empties the redaction set. Test helper.
func ClearNames() {
	namesMu.Lock()
	defer namesMu.Unlock()
	nameSet = map[string]struct{}{}
	namePatterns = nil
}

// RedactNames masks every registered child name in s.
func RedactNames(s string) string {
	namesMu.RLock()
	defer namesMu.RUnlock()
	for _, p := range namePatterns {
		s = p.ReplaceAllString(s, "[child]")
	}
	return s
}
