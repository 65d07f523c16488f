// Package postgres implements the store interfaces against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/domain"
)

// EmailRepo implements analyzer.EmailStore against PostgreSQL.
type EmailRepo struct{ db *sql.DB }

// NewEmailRepo creates a Postgres-backed email repository.
func NewEmailRepo(db *sql.DB) *EmailRepo { return &EmailRepo{db: db} }

func (r *EmailRepo) GetEmail(ctx context.Context, ownerID, emailID string) (*domain.Email, error) {
	e := &domain.Email{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, COALESCE(subject,''), COALESCE(sender,''),
		       COALESCE(snippet,''), COALESCE(body,''), COALESCE(attachments_summary,''),
		       received_at, analyzed
		FROM homeroom_emails
		WHERE id = $1 AND owner_id = $2
	`, emailID, ownerID).Scan(
		&e.ID, &e.OwnerID, &e.Subject, &e.Sender,
		&e.Snippet, &e.Body, &e.AttachmentsSummary,
		&e.ReceivedAt, &e.Analyzed,
	)
	if err == sql.ErrNoRows {
		return nil, analyzer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return e, nil
}

func (r *EmailRepo) UnanalyzedEmailIDs(ctx context.Context, ownerID string, limit int) ([]string, error) {
	q := `
		SELECT id FROM homeroom_emails
		WHERE owner_id = $1 AND analyzed = false
		ORDER BY received_at ASC`
	args := []interface{}{ownerID}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed emails: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan email id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *EmailRepo) MarkAnalyzed(ctx context.Context, ownerID, emailID string, analyzed bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE homeroom_emails SET analyzed = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, analyzed, emailID, ownerID)
	if err != nil {
		return fmt.Errorf("mark analyzed: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return analyzer.ErrNotFound
	}
	return nil
}
