package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/domain"
)

// AnalysisRepo implements analyzer.AnalysisStore against PostgreSQL.
// A unique index on email_id backstops the check-then-create idempotency
// guard in the service.
type AnalysisRepo struct{ db *sql.DB }

// NewAnalysisRepo creates a Postgres-backed analysis repository.
func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{db: db} }

func (r *AnalysisRepo) CreateAnalysis(ctx context.Context, a *domain.EmailAnalysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO homeroom_email_analyses
			(id, email_id, owner_id, provider, quality_score, confidence_avg,
			 events_extracted, todos_extracted, recurring_items, inferred_items,
			 status, raw_extraction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
	`, a.ID, a.EmailID, a.OwnerID, a.Provider, a.QualityScore, a.ConfidenceAvg,
		a.EventsExtracted, a.TodosExtracted, a.RecurringItems, a.InferredItems,
		a.Status, []byte(a.RawExtraction))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", analyzer.ErrAlreadyExists
		}
		return "", fmt.Errorf("create analysis: %w", err)
	}
	return a.ID, nil
}

func (r *AnalysisRepo) AnalysisByEmailID(ctx context.Context, emailID string) (*domain.EmailAnalysis, error) {
	a := &domain.EmailAnalysis{}
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email_id, owner_id, provider, quality_score, confidence_avg,
		       events_extracted, todos_extracted, recurring_items, inferred_items,
		       status, COALESCE(raw_extraction,''), created_at
		FROM homeroom_email_analyses
		WHERE email_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, emailID).Scan(
		&a.ID, &a.EmailID, &a.OwnerID, &a.Provider, &a.QualityScore, &a.ConfidenceAvg,
		&a.EventsExtracted, &a.TodosExtracted, &a.RecurringItems, &a.InferredItems,
		&a.Status, &raw, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, analyzer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	a.RawExtraction = raw
	return a, nil
}

func (r *AnalysisRepo) DeleteAnalysesByEmailID(ctx context.Context, emailID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM homeroom_email_analyses WHERE email_id = $1
	`, emailID)
	if err != nil {
		return fmt.Errorf("delete analyses: %w", err)
	}
	return nil
}
