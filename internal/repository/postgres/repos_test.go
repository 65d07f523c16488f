package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/domain"
	"github.com/homeroomhq/homeroom/internal/jobs"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func TestEmailRepoGetEmail(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEmailRepo(db)

	received := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "subject", "sender", "snippet", "body",
		"attachments_summary", "received_at", "analyzed",
	}).AddRow("em-1", "owner-1", "Field trip", "teacher@school.example", "", "Body", "", received, false)

	mock.ExpectQuery("SELECT (.+) FROM homeroom_emails").
		WithArgs("em-1", "owner-1").
		WillReturnRows(rows)

	e, err := repo.GetEmail(context.Background(), "owner-1", "em-1")
	require.NoError(t, err)
	assert.Equal(t, "Field trip", e.Subject)
	assert.Equal(t, received, e.ReceivedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailRepoGetEmailNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEmailRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM homeroom_emails").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetEmail(context.Background(), "owner-1", "missing")
	assert.ErrorIs(t, err, analyzer.ErrNotFound)
}

func TestEmailRepoUnanalyzedEmailIDs(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEmailRepo(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("em-1").AddRow("em-2")
	mock.ExpectQuery("SELECT id FROM homeroom_emails").
		WithArgs("owner-1", 10).
		WillReturnRows(rows)

	ids, err := repo.UnanalyzedEmailIDs(context.Background(), "owner-1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"em-1", "em-2"}, ids)
}

func TestEmailRepoMarkAnalyzedNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEmailRepo(db)

	mock.ExpectExec("UPDATE homeroom_emails").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAnalyzed(context.Background(), "owner-1", "missing", true)
	assert.ErrorIs(t, err, analyzer.ErrNotFound)
}

func TestAttachmentRepoRecordExtraction(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAttachmentRepo(db)

	mock.ExpectExec("UPDATE homeroom_attachments").
		WithArgs(domain.AttachmentSuccess, "transcribed text", "native text layer", "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordExtraction(context.Background(), "att-1", domain.AttachmentSuccess, "transcribed text", "native text layer")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepoContentNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAttachmentRepo(db)

	mock.ExpectQuery("SELECT content FROM homeroom_attachment_blobs").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Content(context.Background(), "missing")
	assert.ErrorIs(t, err, analyzer.ErrNotFound)
}

func TestChildRepoActiveOnly(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewChildRepo(db)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "real_name", "display_name", "active"}).
		AddRow("c1", "owner-1", "Riley", "", true)
	mock.ExpectQuery("SELECT (.+) FROM homeroom_children WHERE owner_id = .+ AND active = true").
		WithArgs("owner-1").
		WillReturnRows(rows)

	profiles, err := repo.ChildProfiles(context.Background(), "owner-1", true)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Riley", profiles[0].RealName)
}

func TestTodoRepoCreateAssignsID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewTodoRepo(db)

	mock.ExpectExec("INSERT INTO homeroom_todos").
		WillReturnResult(sqlmock.NewResult(1, 1))

	todo := &domain.Todo{OwnerID: "owner-1", Description: "Sign form", SourceEmailID: "em-1"}
	id, err := repo.CreateTodo(context.Background(), todo)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, todo.ID)
}

func TestAnalysisRepoDuplicate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAnalysisRepo(db)

	mock.ExpectExec("INSERT INTO homeroom_email_analyses").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateAnalysis(context.Background(), &domain.EmailAnalysis{EmailID: "em-1", OwnerID: "owner-1"})
	assert.ErrorIs(t, err, analyzer.ErrAlreadyExists)
}

func TestAnalysisRepoByEmailID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAnalysisRepo(db)

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "email_id", "owner_id", "provider", "quality_score", "confidence_avg",
		"events_extracted", "todos_extracted", "recurring_items", "inferred_items",
		"status", "raw_extraction", "created_at",
	}).AddRow("an-1", "em-1", "owner-1", "openai", 0.84, 0.8, 2, 1, 0, 0, "analyzed", `{"events":[]}`, created)

	mock.ExpectQuery("SELECT (.+) FROM homeroom_email_analyses").
		WithArgs("em-1").
		WillReturnRows(rows)

	a, err := repo.AnalysisByEmailID(context.Background(), "em-1")
	require.NoError(t, err)
	assert.Equal(t, "an-1", a.ID)
	assert.Equal(t, 0.84, a.QualityScore)
	assert.Equal(t, 2, a.EventsExtracted)
}

func TestJobRepoCompleteAlreadyTerminal(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewJobRepo(db)

	mock.ExpectExec("UPDATE homeroom_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CompleteJob(context.Background(), "job-1", domain.JobComplete, nil, "")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestJobRepoActiveJob(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewJobRepo(db)

	started := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "job_type", "status", "result_json",
		"error_message", "started_at", "completed_at",
	}).AddRow("job-1", "owner-1", "scan_inbox", "scanning", "", "", started, nil)

	mock.ExpectQuery("SELECT (.+) FROM homeroom_jobs").
		WithArgs("owner-1", domain.JobScanInbox).
		WillReturnRows(rows)

	j, err := repo.ActiveJob(context.Background(), "owner-1", domain.JobScanInbox)
	require.NoError(t, err)
	assert.Equal(t, domain.JobScanning, j.Status)
	assert.Nil(t, j.CompletedAt)
}

func TestCleanupRepoRunsBothPasses(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewCleanupRepo(db, 7)

	mock.ExpectExec("UPDATE homeroom_todos").
		WithArgs("owner-1", 7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM homeroom_events").
		WithArgs("owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Run(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
