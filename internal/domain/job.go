package domain

import (
	"encoding/json"
	"time"
)

// JobType enumerates the long-running operations the tracker knows about.
type JobType string

const (
	JobScanInbox       JobType = "scan_inbox"
	JobAnalyzeChildren JobType = "analyze_children"
	JobExtractTraining JobType = "extract_training"
	JobGenerateEmail   JobType = "generate_email"
)

// JobStatus enumerates job states. Transitions are monotonic:
// pending -> scanning -> ranking -> complete|failed.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobScanning JobStatus = "scanning"
	JobRanking  JobStatus = "ranking"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Job is a tracked asynchronous operation. An HTTP caller fires a job
// and polls the latest row per (owner, type) for completion.
type Job struct {
	ID           string          `json:"id" db:"id"`
	OwnerID      string          `json:"owner_id" db:"owner_id"`
	Type         JobType         `json:"job_type" db:"job_type"`
	Status       JobStatus       `json:"status" db:"status"`
	ResultJSON   json.RawMessage `json:"result,omitempty" db:"result_json"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// IsTerminal returns true once the job can no longer change state.
func (s JobStatus) IsTerminal() bool {
	return s == JobComplete || s == JobFailed
}

// jobStatusRank orders statuses for monotonic transition checks.
var jobStatusRank = map[JobStatus]int{
	JobPending:  0,
	JobScanning: 1,
	JobRanking:  2,
	JobComplete: 3,
	JobFailed:   3,
}

// CanTransition reports whether moving from s to next respects the
// monotonic state machine. Terminal states accept nothing.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	from, ok := jobStatusRank[s]
	if !ok {
		return false
	}
	to, ok := jobStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}
