package domain

import "time"

// AttachmentStatus enumerates the terminal outcomes of one extraction attempt.
type AttachmentStatus string

const (
	AttachmentPending AttachmentStatus = "pending"
	AttachmentSuccess AttachmentStatus = "success"
	AttachmentFailed  AttachmentStatus = "failed"
	AttachmentSkipped AttachmentStatus = "skipped"
)

// Email is an ingested message. Ingestion creates it; the analysis
// pipeline only flips Analyzed and merges attachment text into the view
// it sends to the extraction provider. It is never deleted here.
type Email struct {
	ID                 string    `json:"id" db:"id"`
	OwnerID            string    `json:"owner_id" db:"owner_id"`
	Subject            string    `json:"subject" db:"subject"`
	Sender             string    `json:"sender" db:"sender"`
	Snippet            string    `json:"snippet" db:"snippet"`
	Body               string    `json:"body" db:"body"`
	AttachmentsSummary string    `json:"attachments_summary" db:"attachments_summary"`
	ReceivedAt         time.Time `json:"received_at" db:"received_at"`
	Analyzed           bool      `json:"analyzed" db:"analyzed"`
}

// Attachment is a binary attachment of an ingested email. Status moves
// from pending to exactly one terminal state per attempt; a retry is a
// new attempt, not a reversion.
type Attachment struct {
	ID            string           `json:"id" db:"id"`
	EmailID       string           `json:"email_id" db:"email_id"`
	Filename      string           `json:"filename" db:"filename"`
	MimeType      string           `json:"mime_type" db:"mime_type"`
	SizeBytes     int64            `json:"size_bytes" db:"size_bytes"`
	Status        AttachmentStatus `json:"extraction_status" db:"extraction_status"`
	ExtractedText string           `json:"extracted_text,omitempty" db:"extracted_text"`
	StatusReason  string           `json:"status_reason,omitempty" db:"status_reason"`
}

// ChildProfile is supplied by the profile collaborator and is read-only
// inside the pipeline.
type ChildProfile struct {
	ID          string `json:"id" db:"id"`
	OwnerID     string `json:"owner_id" db:"owner_id"`
	RealName    string `json:"real_name" db:"real_name"`
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
	Active      bool   `json:"active" db:"active"`
}
