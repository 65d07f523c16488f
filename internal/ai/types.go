package ai

// ExtractedEvent is one calendar candidate returned by an extraction pass.
// Schema-constrained but not guaranteed semantically correct.
type ExtractedEvent struct {
	Title             string  `json:"title"`
	Date              string  `json:"date,omitempty"`
	Time              string  `json:"time,omitempty"`
	Location          string  `json:"location,omitempty"`
	ChildName         string  `json:"child_name,omitempty"`
	Confidence        float64 `json:"confidence"`
	Recurring         bool    `json:"recurring"`
	RecurrencePattern string  `json:"recurrence_pattern,omitempty"`
	Inferred          bool    `json:"inferred"`
}

// ExtractedTodo is one action-item candidate returned by an extraction pass.
type ExtractedTodo struct {
	Description       string  `json:"description"`
	DueDate           string  `json:"due_date,omitempty"`
	ChildName         string  `json:"child_name,omitempty"`
	Confidence        float64 `json:"confidence"`
	Recurring         bool    `json:"recurring"`
	RecurrencePattern string  `json:"recurrence_pattern,omitempty"`
	Inferred          bool    `json:"inferred"`
}

// HumanAnalysis captures the model's free-text reading of the email.
type HumanAnalysis struct {
	Summary         string `json:"summary,omitempty"`
	Tone            string `json:"tone,omitempty"`
	Intent          string `json:"intent,omitempty"`
	ImplicitContext string `json:"implicit_context,omitempty"`
}

// ExtractionResult is the typed output of one extraction pass.
type ExtractionResult struct {
	Events        []ExtractedEvent `json:"events"`
	Todos         []ExtractedTodo  `json:"todos"`
	HumanAnalysis HumanAnalysis    `json:"human_analysis"`
}

// ChildContext is the anonymized child descriptor sent to providers.
// Token stands in for the child's real name; providers never see more.
type ChildContext struct {
	Token       string `json:"token"`
	DisplayHint string `json:"display_hint,omitempty"`
}

// ExtractionRequest is the anonymized view of one email handed to a provider.
type ExtractionRequest struct {
	Subject        string
	Sender         string
	Snippet        string
	Body           string
	AttachmentText string
	Children       []ChildContext
}
