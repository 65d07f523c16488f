package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractionSchema is the strict output schema both providers are held
// to. OpenAI receives it as a response_format json_schema; Bedrock gets
// it embedded in the system prompt and the reply is parsed against the
// same shape.
const extractionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["events", "todos", "human_analysis"],
  "properties": {
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["title", "confidence", "recurring", "inferred"],
        "properties": {
          "title": {"type": "string"},
          "date": {"type": "string"},
          "time": {"type": "string"},
          "location": {"type": "string"},
          "child_name": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "recurring": {"type": "boolean"},
          "recurrence_pattern": {"type": "string"},
          "inferred": {"type": "boolean"}
        }
      }
    },
    "todos": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["description", "confidence", "recurring", "inferred"],
        "properties": {
          "description": {"type": "string"},
          "due_date": {"type": "string"},
          "child_name": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "recurring": {"type": "boolean"},
          "recurrence_pattern": {"type": "string"},
          "inferred": {"type": "boolean"}
        }
      }
    },
    "human_analysis": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "summary": {"type": "string"},
        "tone": {"type": "string"},
        "intent": {"type": "string"},
        "implicit_context": {"type": "string"}
      }
    }
  }
}`

const extractionSystemPrompt = `You extract actionable items from school and activity emails sent to parents.

Read the email below and return every calendar event and every parent todo it contains or implies. Children are referred to by opaque tokens (CHILD_1, CHILD_2, ...); use those tokens verbatim in child_name fields and never invent names.

Rules:
- Dates must be ISO 8601 (YYYY-MM-DD or full timestamps) when explicit in the text.
- If a date or recurrence was not explicit and you derived it, set "inferred": true.
- For recurring items set "recurring": true and describe the pattern in plain words in "recurrence_pattern" (e.g. "every Tuesday").
- confidence is your own certainty in the item, 0 to 1.
- human_analysis captures your overall reading: a one-line summary, the sender's tone, their intent, and any implicit context a busy parent might miss.
- Output JSON conforming exactly to the provided schema. No prose.`

// buildUserContent renders the anonymized email into the text block both
// providers receive.
func buildUserContent(req ExtractionRequest) string {
	var b strings.Builder
	b.WriteString("From: " + req.Sender + "\n")
	b.WriteString("Subject: " + req.Subject + "\n")
	if req.Snippet != "" {
		b.WriteString("Snippet: " + req.Snippet + "\n")
	}
	if len(req.Children) > 0 {
		b.WriteString("Children: ")
		for i, c := range req.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Token)
			if c.DisplayHint != "" {
				b.WriteString(" (" + c.DisplayHint + ")")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + req.Body)
	if req.AttachmentText != "" {
		b.WriteString("\n\n=== Attachment text ===\n" + req.AttachmentText)
	}
	return b.String()
}

// parseExtraction decodes and sanity-checks a provider's JSON answer.
func parseExtraction(raw []byte) (*ExtractionResult, error) {
	var result ExtractionResult
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i, e := range result.Events {
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("%w: event %d has no title", ErrMalformedResponse, i)
		}
	}
	for i, td := range result.Todos {
		if strings.TrimSpace(td.Description) == "" {
			return nil, fmt.Errorf("%w: todo %d has no description", ErrMalformedResponse, i)
		}
	}
	if result.Events == nil {
		result.Events = []ExtractedEvent{}
	}
	if result.Todos == nil {
		result.Todos = []ExtractedTodo{}
	}
	return &result, nil
}

const ocrPrompt = `Transcribe all readable text from this image exactly as written, preserving line breaks. If the image is a photo or artwork with no meaningful text, reply with exactly: No readable text.`
