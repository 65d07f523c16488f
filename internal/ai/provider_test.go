package ai

import (
	"context"
	"testing"
)

type stubProvider struct{ name string }

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) ExtractActions(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte, error) {
	return &ExtractionResult{Events: []ExtractedEvent{}, Todos: []ExtractedTodo{}}, []byte("{}"), nil
}
func (s *stubProvider) TranscribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return "", nil
}

func TestRegistrySelectByName(t *testing.T) {
	a := &stubProvider{name: "openai"}
	b := &stubProvider{name: "bedrock"}
	r := NewRegistry(a, b)

	got, err := r.Get("bedrock")
	if err != nil {
		t.Fatalf("Get(bedrock) error = %v", err)
	}
	if got != Provider(b) {
		t.Errorf("Get(bedrock) returned wrong provider")
	}

	// Empty name falls back to the first registered provider.
	got, err = r.Get("")
	if err != nil {
		t.Fatalf("Get(\"\") error = %v", err)
	}
	if got != Provider(a) {
		t.Errorf("default provider should be the first registered")
	}

	if _, err := r.Get("gemini"); err == nil {
		t.Error("unknown provider name should error")
	}
}

func TestRegistryFallback(t *testing.T) {
	a := &stubProvider{name: "openai"}
	b := &stubProvider{name: "bedrock"}

	r := NewRegistry(a, b)
	if fb := r.Fallback("openai"); fb != Provider(b) {
		t.Errorf("Fallback(openai) = %v, want bedrock", fb)
	}
	if fb := r.Fallback("bedrock"); fb != Provider(a) {
		t.Errorf("Fallback(bedrock) = %v, want openai", fb)
	}

	single := NewRegistry(a)
	if fb := single.Fallback("openai"); fb != nil {
		t.Errorf("single-provider registry has no fallback, got %v", fb)
	}
}

func TestParseExtractionDefaults(t *testing.T) {
	result, err := parseExtraction([]byte(`{"human_analysis": {"summary": "nothing actionable"}}`))
	if err != nil {
		t.Fatalf("parseExtraction() error = %v", err)
	}
	if result.Events == nil || result.Todos == nil {
		t.Error("nil slices should be normalized to empty")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
