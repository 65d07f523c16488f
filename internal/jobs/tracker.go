// Package jobs tracks long-running operations fired from HTTP handlers.
// Callers start a job, get its id back immediately, and poll the latest
// job per (owner, type) for completion.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/homeroomhq/homeroom/internal/domain"
)

// ErrNotFound is returned when no job exists for the requested scope.
var ErrNotFound = errors.New("job not found")

// Store persists job rows.
type Store interface {
	CreateJob(ctx context.Context, job *domain.Job) (string, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	LatestJob(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error)
	// ActiveJob returns the newest non-terminal job for the scope, or
	// ErrNotFound when none is in flight.
	ActiveJob(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) error
	CompleteJob(ctx context.Context, id string, status domain.JobStatus, result json.RawMessage, errorMessage string) error
}

// Runner is the body of a job. It reports progress and its result
// through the handle; returning an error fails the job if the runner
// has not already completed it.
type Runner func(ctx context.Context, h *Handle) error

// Tracker starts jobs and enforces at most one in-flight job per
// (owner, type).
type Tracker struct {
	store Store
	// timeout bounds one job run. Zero disables the bound.
	timeout time.Duration
}

// NewTracker builds a tracker over the given store.
func NewTracker(store Store, timeout time.Duration) *Tracker {
	return &Tracker{store: store, timeout: timeout}
}

// Start launches runner in the background under a fresh job row. When a
// job of the same type is already in flight for the owner, the existing
// job is returned with started=false and no new work begins.
func (t *Tracker) Start(ctx context.Context, ownerID string, jobType domain.JobType, runner Runner) (job *domain.Job, started bool, err error) {
	existing, err := t.store.ActiveJob(ctx, ownerID, jobType)
	if err == nil {
		log.Printf("[Jobs] %s already in flight for owner %s (job %s)", jobType, ownerID, existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("checking in-flight jobs: %w", err)
	}

	job = &domain.Job{
		OwnerID:   ownerID,
		Type:      jobType,
		Status:    domain.JobPending,
		StartedAt: time.Now().UTC(),
	}
	id, err := t.store.CreateJob(ctx, job)
	if err != nil {
		return nil, false, fmt.Errorf("creating job: %w", err)
	}
	job.ID = id

	go t.run(job, runner)
	return job, true, nil
}

// Latest returns the newest job for the scope.
func (t *Tracker) Latest(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error) {
	return t.store.LatestJob(ctx, ownerID, jobType)
}

// Get returns one job by id.
func (t *Tracker) Get(ctx context.Context, id string) (*domain.Job, error) {
	return t.store.GetJob(ctx, id)
}

func (t *Tracker) run(job *domain.Job, runner Runner) {
	// The HTTP request that fired the job is long gone; the run gets its
	// own context.
	ctx := context.Background()
	var cancel context.CancelFunc = func() {}
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	}
	defer cancel()

	h := &Handle{tracker: t, jobID: job.ID, status: job.Status}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Jobs] Job %s (%s) panicked: %v", job.ID, job.Type, r)
			h.Fail(context.Background(), fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := runner(ctx, h); err != nil {
		h.Fail(context.Background(), err.Error())
		return
	}
	// a runner that never called Complete still ends terminal
	h.Complete(context.Background(), nil)
}

// Handle is the runner's view of its own job row.
type Handle struct {
	tracker *Tracker
	jobID   string
	status  domain.JobStatus
}

// JobID returns the id of the tracked job.
func (h *Handle) JobID() string { return h.jobID }

// Advance moves the job to a later non-terminal status. Backward or
// repeated transitions are rejected and logged, not applied.
func (h *Handle) Advance(ctx context.Context, status domain.JobStatus) {
	if !h.status.CanTransition(status) {
		log.Printf("[Jobs] Ignoring transition %s -> %s for job %s", h.status, status, h.jobID)
		return
	}
	if err := h.tracker.store.UpdateJobStatus(ctx, h.jobID, status); err != nil {
		log.Printf("[Jobs] Failed to update job %s to %s: %v", h.jobID, status, err)
		return
	}
	h.status = status
}

// Complete marks the job complete with an optional result payload.
// A no-op once the job is terminal.
func (h *Handle) Complete(ctx context.Context, result any) {
	if h.status.IsTerminal() {
		return
	}
	var payload json.RawMessage
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			log.Printf("[Jobs] Failed to marshal result for job %s: %v", h.jobID, err)
		} else {
			payload = data
		}
	}
	if err := h.tracker.store.CompleteJob(ctx, h.jobID, domain.JobComplete, payload, ""); err != nil {
		log.Printf("[Jobs] Failed to complete job %s: %v", h.jobID, err)
		return
	}
	h.status = domain.JobComplete
}

// Fail marks the job failed with a message. A no-op once terminal.
func (h *Handle) Fail(ctx context.Context, message string) {
	if h.status.IsTerminal() {
		return
	}
	if err := h.tracker.store.CompleteJob(ctx, h.jobID, domain.JobFailed, nil, message); err != nil {
		log.Printf("[Jobs] Failed to mark job %s failed: %v", h.jobID, err)
		return
	}
	h.status = domain.JobFailed
}
