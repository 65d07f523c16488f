package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/domain"
)

// AttachmentRepo implements analyzer.AttachmentStore against PostgreSQL.
// Attachment blobs live in a separate table from the metadata so listing
// never drags binary content through the wire.
type AttachmentRepo struct{ db *sql.DB }

// NewAttachmentRepo creates a Postgres-backed attachment repository.
func NewAttachmentRepo(db *sql.DB) *AttachmentRepo { return &AttachmentRepo{db: db} }

func (r *AttachmentRepo) ListByEmail(ctx context.Context, emailID string) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email_id, COALESCE(filename,''), COALESCE(mime_type,''),
		       size_bytes, extraction_status, COALESCE(extracted_text,''),
		       COALESCE(status_reason,'')
		FROM homeroom_attachments
		WHERE email_id = $1
		ORDER BY filename ASC
	`, emailID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(
			&a.ID, &a.EmailID, &a.Filename, &a.MimeType,
			&a.SizeBytes, &a.Status, &a.ExtractedText, &a.StatusReason,
		); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttachmentRepo) Content(ctx context.Context, attachmentID string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT content FROM homeroom_attachment_blobs WHERE attachment_id = $1
	`, attachmentID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, analyzer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attachment content: %w", err)
	}
	return data, nil
}

func (r *AttachmentRepo) RecordExtraction(ctx context.Context, attachmentID string, status domain.AttachmentStatus, text, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE homeroom_attachments
		SET extraction_status = $1, extracted_text = $2, status_reason = $3, updated_at = NOW()
		WHERE id = $4
	`, status, text, reason, attachmentID)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return analyzer.ErrNotFound
	}
	return nil
}
