package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/homeroomhq/homeroom/internal/domain"
	"github.com/homeroomhq/homeroom/internal/jobs"
)

// JobRepo implements jobs.Store against PostgreSQL.
type JobRepo struct{ db *sql.DB }

// NewJobRepo creates a Postgres-backed job repository.
func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{db: db} }

const jobColumns = `id, owner_id, job_type, status, COALESCE(result_json,''),
       COALESCE(error_message,''), started_at, completed_at`

func scanJob(row *sql.Row) (*domain.Job, error) {
	j := &domain.Job{}
	var raw []byte
	err := row.Scan(
		&j.ID, &j.OwnerID, &j.Type, &j.Status, &raw,
		&j.ErrorMessage, &j.StartedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	j.ResultJSON = raw
	return j, nil
}

func (r *JobRepo) CreateJob(ctx context.Context, j *domain.Job) (string, error) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO homeroom_jobs (id, owner_id, job_type, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, j.ID, j.OwnerID, j.Type, j.Status, j.StartedAt)
	if err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return j.ID, nil
}

func (r *JobRepo) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM homeroom_jobs WHERE id = $1
	`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (r *JobRepo) LatestJob(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM homeroom_jobs
		WHERE owner_id = $1 AND job_type = $2
		ORDER BY started_at DESC
		LIMIT 1
	`, ownerID, jobType)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return j, nil
}

func (r *JobRepo) ActiveJob(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM homeroom_jobs
		WHERE owner_id = $1 AND job_type = $2 AND status NOT IN ('complete','failed')
		ORDER BY started_at DESC
		LIMIT 1
	`, ownerID, jobType)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active job: %w", err)
	}
	return j, nil
}

func (r *JobRepo) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE homeroom_jobs SET status = $1
		WHERE id = $2 AND status NOT IN ('complete','failed')
	`, status, id)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (r *JobRepo) CompleteJob(ctx context.Context, id string, status domain.JobStatus, result json.RawMessage, errorMessage string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE homeroom_jobs
		SET status = $1, result_json = NULLIF($2,''), error_message = $3, completed_at = NOW()
		WHERE id = $4 AND status NOT IN ('complete','failed')
	`, status, string(result), errorMessage, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return jobs.ErrNotFound
	}
	return nil
}
