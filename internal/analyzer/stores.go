package analyzer

import (
	"context"
	"errors"

	"github.com/homeroomhq/homeroom/internal/domain"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by AnalysisStore.CreateAnalysis when a
// record for the email already exists; the check-then-create idempotency
// guard races at the microsecond level and the unique index is the
// backstop.
var ErrAlreadyExists = errors.New("analysis already exists")

// EmailStore reads ingested emails and flips their analyzed flag.
// Emails are never created or deleted here.
type EmailStore interface {
	GetEmail(ctx context.Context, ownerID, emailID string) (*domain.Email, error)
	UnanalyzedEmailIDs(ctx context.Context, ownerID string, limit int) ([]string, error)
	MarkAnalyzed(ctx context.Context, ownerID, emailID string, analyzed bool) error
}

// AttachmentStore reads attachment metadata and blobs and records the
// terminal outcome of each extraction attempt.
type AttachmentStore interface {
	ListByEmail(ctx context.Context, emailID string) ([]domain.Attachment, error)
	Content(ctx context.Context, attachmentID string) ([]byte, error)
	RecordExtraction(ctx context.Context, attachmentID string, status domain.AttachmentStatus, text, reason string) error
}

// ChildStore supplies child profiles. Read-only in the pipeline.
type ChildStore interface {
	ChildProfiles(ctx context.Context, ownerID string, activeOnly bool) ([]domain.ChildProfile, error)
}

// TodoStore persists extracted todos.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *domain.Todo) (string, error)
}

// EventStore persists extracted and derived events.
type EventStore interface {
	CreateEvent(ctx context.Context, event *domain.Event) (string, error)
}

// AnalysisStore persists one record per extraction pass.
type AnalysisStore interface {
	CreateAnalysis(ctx context.Context, a *domain.EmailAnalysis) (string, error)
	AnalysisByEmailID(ctx context.Context, emailID string) (*domain.EmailAnalysis, error)
	DeleteAnalysesByEmailID(ctx context.Context, emailID string) error
}

// Cleanup is the external collaborator invoked after a batch pass
// (auto-completing stale todos, pruning expired events).
type Cleanup interface {
	Run(ctx context.Context, ownerID string) error
}

// Locker serializes AI calls per owner. Advisory: a failed acquisition
// logs and proceeds, because duplicates are wasteful, not unsafe.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory builds a lock scoped to one owner's batch analysis.
type LockFactory func(ownerID string) Locker
