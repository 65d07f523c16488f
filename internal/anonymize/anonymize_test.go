package anonymize

import (
	"fmt"
	"testing"

	"github.com/homeroomhq/homeroom/internal/ai"
	"github.com/homeroomhq/homeroom/internal/domain"
)

func profiles() []domain.ChildProfile {
	return []domain.ChildProfile{
		{ID: "c1", OwnerID: "u1", RealName: "Samantha", DisplayName: "Sammy", Active: true},
		{ID: "c2", OwnerID: "u1", RealName: "Sam", Active: true},
		{ID: "c3", OwnerID: "u1", RealName: "Oliver", Active: false},
	}
}

func TestBuildMappingOrdersByProfileID(t *testing.T) {
	m := BuildMapping(profiles())
	children := m.Children()
	if len(children) != 2 {
		t.Fatalf("expected 2 active children, got %d", len(children))
	}
	if children[0].Token != "CHILD_1" || children[1].Token != "CHILD_2" {
		t.Errorf("tokens not sequential by profile id: %+v", children)
	}
}

func TestAnonymizeLongestNameFirst(t *testing.T) {
	m := BuildMapping(profiles())

	got := m.Anonymize("Samantha and Sam both have practice. Sammy forgot her cleats.")
	want := "CHILD_1 and CHILD_2 both have practice. CHILD_1 forgot her cleats."
	if got != want {
		t.Errorf("Anonymize() = %q, want %q", got, want)
	}
}

func TestAnonymizeWholeWordOnly(t *testing.T) {
	m := BuildMapping([]domain.ChildProfile{
		{ID: "c1", RealName: "Ann", Active: true},
	})
	got := m.Anonymize("Annual planner for Ann's class")
	want := "Annual planner for CHILD_1's class"
	if got != want {
		t.Errorf("Anonymize() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	m := BuildMapping([]domain.ChildProfile{
		{ID: "c1", RealName: "Maya", Active: true},
		{ID: "c2", RealName: "Leo", Active: true},
	})
	texts := []string{
		"Maya has swimming on Tuesday; Leo needs a packed lunch.",
		"No children mentioned here at all.",
		"maya in lowercase still counts",
	}
	for _, text := range texts {
		round := m.Deanonymize(m.Anonymize(text))
		// Case-insensitive matching restores the canonical casing.
		if text == "maya in lowercase still counts" {
			if round != "Maya in lowercase still counts" {
				t.Errorf("round trip = %q", round)
			}
			continue
		}
		if round != text {
			t.Errorf("round trip = %q, want %q", round, text)
		}
	}
}

func TestDeanonymizeDoubleDigitTokens(t *testing.T) {
	names := []string{"Ava", "Ben", "Cara", "Dev", "Ella", "Finn", "Gia", "Hugo", "Iris", "Jude"}
	var ps []domain.ChildProfile
	for i, name := range names {
		ps = append(ps, domain.ChildProfile{
			ID:       fmt.Sprintf("c%02d", i+1),
			RealName: name,
			Active:   true,
		})
	}
	m := BuildMapping(ps)

	anon := m.Anonymize("Jude has practice on Tuesday.")
	if anon != "CHILD_10 has practice on Tuesday." {
		t.Fatalf("Anonymize() = %q", anon)
	}
	// CHILD_1 must not match inside CHILD_10.
	if got := m.Deanonymize(anon); got != "Jude has practice on Tuesday." {
		t.Errorf("Deanonymize() = %q, want the tenth child's name", got)
	}
	if got := m.Deanonymize("CHILD_2 and CHILD_10 share a ride."); got != "Ben and Jude share a ride." {
		t.Errorf("Deanonymize() = %q", got)
	}
}

func TestDeanonymizeLeavesUnknownTokens(t *testing.T) {
	m := BuildMapping([]domain.ChildProfile{
		{ID: "c1", RealName: "Maya", Active: true},
	})
	got := m.Deanonymize("CHILD_1 and CHILD_7 have a recital.")
	if got != "Maya and CHILD_7 have a recital." {
		t.Errorf("Deanonymize() = %q", got)
	}
}

func TestNoActiveProfilesIsNoOp(t *testing.T) {
	m := BuildMapping(nil)
	if !m.Empty() {
		t.Fatal("mapping from nil profiles should be empty")
	}
	text := "Eleanor has a recital on Friday"
	if got := m.Anonymize(text); got != text {
		t.Errorf("Anonymize should be a no-op, got %q", got)
	}
	if got := m.Deanonymize(text); got != text {
		t.Errorf("Deanonymize should be a no-op, got %q", got)
	}
}

func TestDeanonymizeResult(t *testing.T) {
	m := BuildMapping([]domain.ChildProfile{
		{ID: "c1", RealName: "Maya", Active: true},
	})
	result := &ai.ExtractionResult{
		Events: []ai.ExtractedEvent{
			{Title: "CHILD_1's recital", ChildName: "CHILD_1", Location: "school hall"},
		},
		Todos: []ai.ExtractedTodo{
			{Description: "Pack CHILD_1's swim kit", ChildName: "CHILD_1"},
		},
		HumanAnalysis: ai.HumanAnalysis{Summary: "Recital reminder for CHILD_1"},
	}

	m.DeanonymizeResult(result)

	if result.Events[0].Title != "Maya's recital" || result.Events[0].ChildName != "Maya" {
		t.Errorf("event not deanonymized: %+v", result.Events[0])
	}
	if result.Todos[0].Description != "Pack Maya's swim kit" {
		t.Errorf("todo not deanonymized: %+v", result.Todos[0])
	}
	if result.HumanAnalysis.Summary != "Recital reminder for Maya" {
		t.Errorf("human analysis not deanonymized: %+v", result.HumanAnalysis)
	}
}
