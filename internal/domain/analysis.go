package domain

import (
	"encoding/json"
	"time"
)

// AnalysisStatus enumerates the review lifecycle of an analysis record.
type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "pending"
	AnalysisAnalyzed AnalysisStatus = "analyzed"
	AnalysisReviewed AnalysisStatus = "reviewed"
	AnalysisApproved AnalysisStatus = "approved"
	AnalysisRejected AnalysisStatus = "rejected"
)

// EmailAnalysis records one extraction pass over one email. Created at
// most once per (email, version); immutable afterwards except for the
// review status fields.
type EmailAnalysis struct {
	ID              string          `json:"id" db:"id"`
	EmailID         string          `json:"email_id" db:"email_id"`
	OwnerID         string          `json:"owner_id" db:"owner_id"`
	Provider        string          `json:"provider" db:"provider"`
	QualityScore    float64         `json:"quality_score" db:"quality_score"`
	ConfidenceAvg   float64         `json:"confidence_avg" db:"confidence_avg"`
	EventsExtracted int             `json:"events_extracted" db:"events_extracted"`
	TodosExtracted  int             `json:"todos_extracted" db:"todos_extracted"`
	RecurringItems  int             `json:"recurring_items" db:"recurring_items"`
	InferredItems   int             `json:"inferred_items" db:"inferred_items"`
	Status          AnalysisStatus  `json:"status" db:"status"`
	RawExtraction   json.RawMessage `json:"raw_extraction,omitempty" db:"raw_extraction"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
