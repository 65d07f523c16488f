// Package analyzer orchestrates the extraction pipeline: attachment text
// recovery, anonymization, the provider call, quality scoring, due-date
// repair, and persistence of the resulting todos and events. One email in,
// at most one analysis record out.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/homeroomhq/homeroom/internal/ai"
	"github.com/homeroomhq/homeroom/internal/anonymize"
	"github.com/homeroomhq/homeroom/internal/attachment"
	"github.com/homeroomhq/homeroom/internal/domain"
	"github.com/homeroomhq/homeroom/internal/pkg/logger"
	"github.com/homeroomhq/homeroom/internal/quality"
	"github.com/homeroomhq/homeroom/internal/schedule"
)

// Archiver persists the raw provider response after a successful analysis.
// Optional collaborator; a nil archiver disables archival.
type Archiver interface {
	ArchiveAnalysis(ctx context.Context, ownerID, emailID, analysisID string, raw []byte) error
}

const defaultBatchDelay = 2 * time.Second

// Config wires the analyzer's collaborators. Registry and the stores are
// required; Archiver, Cleanup, and Locks are optional.
type Config struct {
	Emails      EmailStore
	Attachments AttachmentStore
	Children    ChildStore
	Todos       TodoStore
	Events      EventStore
	Analyses    AnalysisStore
	Registry    *ai.Registry
	Limits      attachment.Limits
	Archiver    Archiver
	Cleanup     Cleanup
	Locks       LockFactory

	// BatchDelay is the pause between emails in a batch pass, spacing out
	// provider calls. Zero selects the default of 2s.
	BatchDelay time.Duration
	// BatchLimit caps how many unanalyzed emails one batch pass picks up.
	// Zero means no cap.
	BatchLimit int
}

// Service runs extraction passes. Safe for concurrent use.
type Service struct {
	emails      EmailStore
	attachments AttachmentStore
	children    ChildStore
	todos       TodoStore
	events      EventStore
	analyses    AnalysisStore
	registry    *ai.Registry
	limits      attachment.Limits
	archiver    Archiver
	cleanup     Cleanup
	locks       LockFactory
	batchDelay  time.Duration
	batchLimit  int
}

// NewService builds a Service from cfg.
func NewService(cfg Config) *Service {
	delay := cfg.BatchDelay
	if delay == 0 {
		delay = defaultBatchDelay
	}
	return &Service{
		emails:      cfg.Emails,
		attachments: cfg.Attachments,
		children:    cfg.Children,
		todos:       cfg.Todos,
		events:      cfg.Events,
		analyses:    cfg.Analyses,
		registry:    cfg.Registry,
		limits:      cfg.Limits,
		archiver:    cfg.Archiver,
		cleanup:     cfg.Cleanup,
		locks:       cfg.Locks,
		batchDelay:  delay,
		batchLimit:  cfg.BatchLimit,
	}
}

// AnalyzeResult reports the outcome of one single-email pass.
type AnalyzeResult struct {
	EmailID       string  `json:"email_id"`
	AnalysisID    string  `json:"analysis_id,omitempty"`
	EventsCreated int     `json:"events_created"`
	TodosCreated  int     `json:"todos_created"`
	QualityScore  float64 `json:"quality_score"`
	Status        string  `json:"status"`
	Error         string  `json:"error,omitempty"`
}

// BatchError is one failed email inside an otherwise surviving batch.
type BatchError struct {
	EmailID string `json:"email_id"`
	Message string `json:"message"`
}

// BatchResult aggregates a batch pass over unanalyzed emails.
type BatchResult struct {
	Processed     int             `json:"processed"`
	Successful    int             `json:"successful"`
	Failed        int             `json:"failed"`
	EventsCreated int             `json:"events_created"`
	TodosCreated  int             `json:"todos_created"`
	Results       []AnalyzeResult `json:"results,omitempty"`
	Errors        []BatchError    `json:"errors,omitempty"`
}

// AnalyzeEmail runs one extraction pass over one email. A second call for
// an already-analyzed email is a no-op that reports the stored counts.
// providerName empty selects the default provider.
func (s *Service) AnalyzeEmail(ctx context.Context, ownerID, emailID, providerName string) AnalyzeResult {
	// The owner-scoped email load comes first: the analysis lookup is
	// keyed by email id alone and must never answer for an email the
	// caller does not own.
	email, err := s.emails.GetEmail(ctx, ownerID, emailID)
	if err != nil {
		return errResult(emailID, fmt.Errorf("loading email: %w", err))
	}

	if existing, err := s.analyses.AnalysisByEmailID(ctx, emailID); err == nil {
		logger.Info("email already analyzed, skipping", "email_id", emailID, "analysis_id", existing.ID)
		return AnalyzeResult{
			EmailID:       emailID,
			AnalysisID:    existing.ID,
			EventsCreated: existing.EventsExtracted,
			TodosCreated:  existing.TodosExtracted,
			QualityScore:  existing.QualityScore,
			Status:        "skipped",
		}
	} else if !errors.Is(err, ErrNotFound) {
		return errResult(emailID, fmt.Errorf("checking existing analysis: %w", err))
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return errResult(emailID, err)
	}

	attachmentText := s.recoverAttachments(ctx, email, provider)

	// A profile read failure aborts the pass: without the full profile
	// set the anonymizer could leave a child's name in the provider
	// payload.
	profiles, err := s.children.ChildProfiles(ctx, ownerID, true)
	if err != nil {
		return errResult(emailID, fmt.Errorf("loading child profiles: %w", err))
	}
	mapping := anonymize.BuildMapping(profiles)
	// Registered names are masked in every log line from here on, so a
	// logged todo description never carries a child's real name.
	logger.RegisterNames(mapping.RealNames()...)

	req := ai.ExtractionRequest{
		Subject:        mapping.Anonymize(email.Subject),
		Sender:         email.Sender,
		Snippet:        mapping.Anonymize(email.Snippet),
		Body:           mapping.Anonymize(email.Body),
		AttachmentText: mapping.Anonymize(attachmentText),
		Children:       mapping.Children(),
	}

	result, raw, err := provider.ExtractActions(ctx, req)
	if err != nil {
		logger.Error("extraction failed", "email_id", emailID, "provider", provider.Name(), "error", err)
		return errResult(emailID, fmt.Errorf("extraction: %w", err))
	}
	mapping.DeanonymizeResult(result)

	score := quality.Score(result)
	avg := quality.AverageConfidence(result)
	recurring, inferred := recurringInferredCounts(result)

	analysis := &domain.EmailAnalysis{
		EmailID:         emailID,
		OwnerID:         ownerID,
		Provider:        provider.Name(),
		QualityScore:    score,
		ConfidenceAvg:   avg,
		EventsExtracted: len(result.Events),
		TodosExtracted:  len(result.Todos),
		RecurringItems:  recurring,
		InferredItems:   inferred,
		Status:          domain.AnalysisAnalyzed,
		RawExtraction:   raw,
	}
	analysisID, err := s.analyses.CreateAnalysis(ctx, analysis)
	if errors.Is(err, ErrAlreadyExists) {
		// Lost a race with a concurrent pass for the same email; the
		// winner's record stands.
		if existing, lookupErr := s.analyses.AnalysisByEmailID(ctx, emailID); lookupErr == nil {
			return AnalyzeResult{
				EmailID:       emailID,
				AnalysisID:    existing.ID,
				EventsCreated: existing.EventsExtracted,
				TodosCreated:  existing.TodosExtracted,
				QualityScore:  existing.QualityScore,
				Status:        "skipped",
			}
		}
		return errResult(emailID, err)
	} else if err != nil {
		return errResult(emailID, fmt.Errorf("storing analysis: %w", err))
	}

	eventsCreated, todosCreated := s.persistActions(ctx, email, result)

	if err := s.emails.MarkAnalyzed(ctx, ownerID, emailID, true); err != nil {
		logger.Warn("failed to mark email analyzed", "email_id", emailID, "error", err)
	}

	if s.archiver != nil && len(raw) > 0 {
		if err := s.archiver.ArchiveAnalysis(ctx, ownerID, emailID, analysisID, raw); err != nil {
			logger.Warn("archive failed", "analysis_id", analysisID, "error", err)
		}
	}

	logger.Info("email analyzed", "email_id", emailID,
		"events", eventsCreated, "todos", todosCreated, "quality", fmt.Sprintf("%.2f", score))
	return AnalyzeResult{
		EmailID:       emailID,
		AnalysisID:    analysisID,
		EventsCreated: eventsCreated,
		TodosCreated:  todosCreated,
		QualityScore:  score,
		Status:        "success",
	}
}

// persistActions writes the extracted events and todos. A failure on one
// item is logged and skipped; the rest of the batch still lands. Returns
// the created counts, with derived preparation reminders included in the
// event count.
func (s *Service) persistActions(ctx context.Context, email *domain.Email, result *ai.ExtractionResult) (eventsCreated, todosCreated int) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range result.Events {
		event := &domain.Event{
			OwnerID:           email.OwnerID,
			Title:             ev.Title,
			Date:              ev.Date,
			Time:              ev.Time,
			Location:          ev.Location,
			ChildName:         ev.ChildName,
			SourceEmailID:     email.ID,
			Confidence:        ev.Confidence,
			Recurring:         ev.Recurring,
			RecurrencePattern: ev.RecurrencePattern,
			Inferred:          ev.Inferred,
		}
		if _, err := s.events.CreateEvent(ctx, event); err != nil {
			logger.Warn("failed to store event", "title", ev.Title, "email_id", email.ID, "error", err)
			continue
		}
		eventsCreated++
	}

	for _, td := range result.Todos {
		todo := &domain.Todo{
			OwnerID:           email.OwnerID,
			Description:       td.Description,
			DueDate:           schedule.FixDueDate(td.DueDate, td.RecurrencePattern, email.ReceivedAt),
			ChildName:         td.ChildName,
			SourceEmailID:     email.ID,
			Confidence:        td.Confidence,
			Recurring:         td.Recurring,
			RecurrencePattern: td.RecurrencePattern,
			Inferred:          td.Inferred,
		}
		if _, err := s.todos.CreateTodo(ctx, todo); err != nil {
			logger.Warn("failed to store todo", "description", td.Description, "email_id", email.ID, "error", err)
			continue
		}
		todosCreated++

		for _, reminder := range PackReminders(todo) {
			r := reminder
			if _, err := s.events.CreateEvent(ctx, &r); err != nil {
				logger.Warn("failed to store reminder", "title", r.Title, "email_id", email.ID, "error", err)
				continue
			}
			eventsCreated++
		}
	}
	return eventsCreated, todosCreated
}

// recoverAttachments extracts text from every attachment of the email and
// merges the successes into one labelled block. Per-attachment failures
// are recorded and skipped; they never fail the analysis.
func (s *Service) recoverAttachments(ctx context.Context, email *domain.Email, provider ai.Provider) string {
	atts, err := s.attachments.ListByEmail(ctx, email.ID)
	if err != nil {
		logger.Warn("failed to list attachments", "email_id", email.ID, "error", err)
		return ""
	}
	if len(atts) == 0 {
		return ""
	}

	engine := attachment.NewEngine(provider, s.registry.Fallback(provider.Name()), s.limits)

	var blocks []string
	imageIndex := 0
	for _, att := range atts {
		if att.Status == domain.AttachmentSuccess && att.ExtractedText != "" {
			blocks = append(blocks, attachmentBlock(att.Filename, att.ExtractedText))
			if attachment.IsImage(att.MimeType, att.Filename) {
				imageIndex++
			}
			continue
		}

		isImage := attachment.IsImage(att.MimeType, att.Filename)

		data, err := s.attachments.Content(ctx, att.ID)
		if err != nil {
			logger.Warn("failed to load attachment content", "attachment_id", att.ID, "filename", att.Filename, "error", err)
			s.recordExtraction(ctx, att.ID, domain.AttachmentFailed, "", "content unavailable")
			continue
		}

		res := engine.Extract(ctx, data, att.MimeType, att.Filename, imageIndex)
		if isImage {
			imageIndex++
		}
		s.recordExtraction(ctx, att.ID, res.Status, res.Text, res.Reason)
		if res.Status == domain.AttachmentSuccess && res.Text != "" {
			blocks = append(blocks, attachmentBlock(att.Filename, res.Text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (s *Service) recordExtraction(ctx context.Context, attachmentID string, status domain.AttachmentStatus, text, reason string) {
	if err := s.attachments.RecordExtraction(ctx, attachmentID, status, text, reason); err != nil {
		logger.Warn("failed to record extraction status", "attachment_id", attachmentID, "error", err)
	}
}

func attachmentBlock(filename, text string) string {
	return fmt.Sprintf("--- Attachment: %s ---\n%s", filename, text)
}

// AnalyzeUnanalyzedEmails runs a batch pass over the owner's unanalyzed
// emails. One email failing does not stop the batch. Provider calls are
// spaced by the configured delay. A positive limit caps this pass;
// zero falls back to the configured batch limit.
func (s *Service) AnalyzeUnanalyzedEmails(ctx context.Context, ownerID, providerName string, limit int) (*BatchResult, error) {
	if s.locks != nil {
		lock := s.locks(ownerID)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("lock acquisition errored, proceeding", "owner_id", ownerID, "error", err)
		} else if !acquired {
			return nil, fmt.Errorf("batch analysis already running for this account")
		} else {
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("lock release failed", "owner_id", ownerID, "error", err)
				}
			}()
		}
	}

	if limit <= 0 {
		limit = s.batchLimit
	}
	ids, err := s.emails.UnanalyzedEmailIDs(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unanalyzed emails: %w", err)
	}
	logger.Info("batch pass started", "owner_id", ownerID, "emails", len(ids))

	batch := &BatchResult{}
	for i, id := range ids {
		if i > 0 {
			select {
			case <-ctx.Done():
				return batch, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}

		res := s.AnalyzeEmail(ctx, ownerID, id, providerName)
		batch.Processed++
		batch.Results = append(batch.Results, res)
		switch res.Status {
		case "error":
			batch.Failed++
			batch.Errors = append(batch.Errors, BatchError{EmailID: id, Message: res.Error})
		default:
			batch.Successful++
			batch.EventsCreated += res.EventsCreated
			batch.TodosCreated += res.TodosCreated
		}
	}

	if s.cleanup != nil {
		if err := s.cleanup.Run(ctx, ownerID); err != nil {
			logger.Warn("post-batch cleanup failed", "owner_id", ownerID, "error", err)
		}
	}
	return batch, nil
}

// ReanalyzeEmail deletes the email's analysis records, clears its
// analyzed flag, and runs a fresh pass. Previously created todos and
// events are kept; reanalysis adds, it does not reconcile.
func (s *Service) ReanalyzeEmail(ctx context.Context, ownerID, emailID, providerName string) AnalyzeResult {
	if err := s.analyses.DeleteAnalysesByEmailID(ctx, emailID); err != nil && !errors.Is(err, ErrNotFound) {
		return errResult(emailID, fmt.Errorf("clearing previous analyses: %w", err))
	}
	if err := s.emails.MarkAnalyzed(ctx, ownerID, emailID, false); err != nil {
		return errResult(emailID, fmt.Errorf("resetting analyzed flag: %w", err))
	}
	return s.AnalyzeEmail(ctx, ownerID, emailID, providerName)
}

func recurringInferredCounts(result *ai.ExtractionResult) (recurring, inferred int) {
	for _, e := range result.Events {
		if e.Recurring {
			recurring++
		}
		if e.Inferred {
			inferred++
		}
	}
	for _, t := range result.Todos {
		if t.Recurring {
			recurring++
		}
		if t.Inferred {
			inferred++
		}
	}
	return recurring, inferred
}

func errResult(emailID string, err error) AnalyzeResult {
	return AnalyzeResult{EmailID: emailID, Status: "error", Error: err.Error()}
}
