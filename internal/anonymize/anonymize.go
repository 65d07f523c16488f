// Package anonymize builds per-call mappings between real child names
// and opaque tokens, so no child's identity ever reaches a third-party
// AI provider. A mapping lives for exactly one extraction pass and is
// never persisted.
package anonymize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/homeroomhq/homeroom/internal/ai"
	"github.com/homeroomhq/homeroom/internal/domain"
)

type entry struct {
	token       string
	realName    string
	displayName string
	pattern     *regexp.Regexp
}

// Mapping is a bidirectional real-name <-> token substitution table.
// Tokens are unique within one mapping and never reused across calls
// because every extraction pass builds a fresh mapping.
type Mapping struct {
	entries []entry
	// substitution order: longest name first, so "Sam" never matches
	// inside a sibling called "Samantha".
	subOrder []sub
	byToken  map[string]string
}

type sub struct {
	pattern *regexp.Regexp
	token   string
}

// BuildMapping assigns a stable sequential token (CHILD_1, CHILD_2, ...)
// to each active profile, ordered by profile id. Inactive profiles are
// ignored. An empty profile list yields a no-op mapping.
func BuildMapping(profiles []domain.ChildProfile) *Mapping {
	active := make([]domain.ChildProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.Active && strings.TrimSpace(p.RealName) != "" {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	m := &Mapping{byToken: make(map[string]string, len(active))}
	for i, p := range active {
		token := fmt.Sprintf("CHILD_%d", i+1)
		m.entries = append(m.entries, entry{
			token:       token,
			realName:    p.RealName,
			displayName: p.DisplayName,
			pattern:     wholeWord(p.RealName),
		})
		m.byToken[token] = p.RealName
		m.subOrder = append(m.subOrder, sub{pattern: wholeWord(p.RealName), token: token})
		if p.DisplayName != "" && !strings.EqualFold(p.DisplayName, p.RealName) {
			m.subOrder = append(m.subOrder, sub{pattern: wholeWord(p.DisplayName), token: token})
		}
	}

	sort.SliceStable(m.subOrder, func(i, j int) bool {
		return len(m.subOrder[i].pattern.String()) > len(m.subOrder[j].pattern.String())
	})
	return m
}

func wholeWord(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// Empty reports whether the mapping has no children and substitution is
// a no-op.
func (m *Mapping) Empty() bool { return len(m.entries) == 0 }

// Anonymize substitutes tokens for child names, whole-word and
// longest-name-first.
func (m *Mapping) Anonymize(text string) string {
	if m.Empty() || text == "" {
		return text
	}
	for _, s := range m.subOrder {
		text = s.pattern.ReplaceAllString(text, s.token)
	}
	return text
}

// tokenPattern matches a whole token so CHILD_1 never matches the
// prefix of CHILD_10.
var tokenPattern = regexp.MustCompile(`\bCHILD_\d+\b`)

// Deanonymize substitutes real names back for tokens. Tokens the
// mapping does not know are left untouched.
func (m *Mapping) Deanonymize(text string) string {
	if m.Empty() || text == "" {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		if name, ok := m.byToken[token]; ok {
			return name
		}
		return token
	})
}

// DeanonymizeResult reverses substitution in every string field of an
// extraction result before anything gets persisted.
func (m *Mapping) DeanonymizeResult(result *ai.ExtractionResult) {
	if result == nil || m.Empty() {
		return
	}
	for i := range result.Events {
		e := &result.Events[i]
		e.Title = m.Deanonymize(e.Title)
		e.Location = m.Deanonymize(e.Location)
		e.ChildName = m.Deanonymize(e.ChildName)
		e.RecurrencePattern = m.Deanonymize(e.RecurrencePattern)
	}
	for i := range result.Todos {
		td := &result.Todos[i]
		td.Description = m.Deanonymize(td.Description)
		td.ChildName = m.Deanonymize(td.ChildName)
		td.RecurrencePattern = m.Deanonymize(td.RecurrencePattern)
	}
	ha := &result.HumanAnalysis
	ha.Summary = m.Deanonymize(ha.Summary)
	ha.Tone = m.Deanonymize(ha.Tone)
	ha.Intent = m.Deanonymize(ha.Intent)
	ha.ImplicitContext = m.Deanonymize(ha.ImplicitContext)
}

// Children returns the anonymized child context for the provider call.
// DisplayHint carries only a generic ordinal, never a name fragment.
func (m *Mapping) Children() []ai.ChildContext {
	out := make([]ai.ChildContext, 0, len(m.entries))
	for i, e := range m.entries {
		out = append(out, ai.ChildContext{Token: e.token, DisplayHint: fmt.Sprintf("child %d", i+1)})
	}
	return out
}

// RealNames lists the real names in the mapping, used to register
// log-redaction patterns.
func (m *Mapping) RealNames() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.realName)
	}
	return out
}
