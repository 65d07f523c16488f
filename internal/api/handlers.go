package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homeroomhq/homeroom/internal/analyzer"
	"github.com/homeroomhq/homeroom/internal/domain"
	"github.com/homeroomhq/homeroom/internal/jobs"
)

// AnalysisService is the slice of the analyzer the HTTP layer uses.
type AnalysisService interface {
	AnalyzeEmail(ctx context.Context, ownerID, emailID, providerName string) analyzer.AnalyzeResult
	AnalyzeUnanalyzedEmails(ctx context.Context, ownerID, providerName string, limit int) (*analyzer.BatchResult, error)
	ReanalyzeEmail(ctx context.Context, ownerID, emailID, providerName string) analyzer.AnalyzeResult
}

// JobTracker is the slice of the job tracker the HTTP layer uses.
type JobTracker interface {
	Start(ctx context.Context, ownerID string, jobType domain.JobType, runner jobs.Runner) (*domain.Job, bool, error)
	Latest(ctx context.Context, ownerID string, jobType domain.JobType) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	analysis  AnalysisService
	tracker   JobTracker
	db        *sql.DB
	providers []string
	startTime time.Time
}

// NewHandlers creates a new Handlers instance. db may be nil; the health
// check then skips the database probe.
func NewHandlers(analysis AnalysisService, tracker JobTracker, db *sql.DB, providers []string) *Handlers {
	return &Handlers{
		analysis:  analysis,
		tracker:   tracker,
		db:        db,
		providers: providers,
		startTime: time.Now(),
	}
}

type analyzeEmailRequest struct {
	EmailID  string `json:"email_id"`
	Provider string `json:"provider,omitempty"`
}

type batchRequest struct {
	Provider string `json:"provider,omitempty"`
	// Limit caps how many emails this pass picks up. Zero means the
	// server's configured batch limit.
	Limit int `json:"limit,omitempty"`
}

// AnalyzeEmail runs one extraction pass synchronously.
//
//	POST /api/analyze/email
func (h *Handlers) AnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	var req analyzeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmailID == "" {
		respondError(w, http.StatusBadRequest, "email_id is required")
		return
	}

	res := h.analysis.AnalyzeEmail(r.Context(), ownerID(r), req.EmailID, req.Provider)
	if res.Status == "error" {
		respondJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ReanalyzeEmail clears a previous analysis and runs a fresh pass.
//
//	POST /api/analyze/reanalyze
func (h *Handlers) ReanalyzeEmail(w http.ResponseWriter, r *http.Request) {
	var req analyzeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmailID == "" {
		respondError(w, http.StatusBadRequest, "email_id is required")
		return
	}

	res := h.analysis.ReanalyzeEmail(r.Context(), ownerID(r), req.EmailID, req.Provider)
	if res.Status == "error" {
		respondJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// AnalyzeBatch starts an asynchronous batch pass over all unanalyzed
// emails, tracked as a scan_inbox job.
//
//	POST /api/analyze/batch
func (h *Handlers) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	owner := ownerID(r)
	job, started, err := h.tracker.Start(r.Context(), owner, domain.JobScanInbox, h.batchRunner(owner, req.Provider, req.Limit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !started {
		respondJSON(w, http.StatusConflict, job)
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

func (h *Handlers) batchRunner(owner, provider string, limit int) jobs.Runner {
	return func(ctx context.Context, handle *jobs.Handle) error {
		handle.Advance(ctx, domain.JobScanning)
		batch, err := h.analysis.AnalyzeUnanalyzedEmails(ctx, owner, provider, limit)
		if err != nil {
			return err
		}
		handle.Advance(ctx, domain.JobRanking)
		handle.Complete(ctx, batch)
		return nil
	}
}

// StartJob fires a background job of the named type.
//
//	POST /api/jobs/{type}
func (h *Handlers) StartJob(w http.ResponseWriter, r *http.Request) {
	jobType, ok := parseJobType(chi.URLParam(r, "type"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown job type")
		return
	}

	owner := ownerID(r)
	var runner jobs.Runner
	switch jobType {
	case domain.JobScanInbox, domain.JobAnalyzeChildren:
		runner = h.batchRunner(owner, "", 0)
	default:
		respondError(w, http.StatusNotImplemented, "job type not available")
		return
	}

	job, started, err := h.tracker.Start(r.Context(), owner, jobType, runner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !started {
		respondJSON(w, http.StatusConflict, job)
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

// LatestJob returns the newest job of the named type for the caller.
//
//	GET /api/jobs/{type}/latest
func (h *Handlers) LatestJob(w http.ResponseWriter, r *http.Request) {
	jobType, ok := parseJobType(chi.URLParam(r, "type"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown job type")
		return
	}

	job, err := h.tracker.Latest(r.Context(), ownerID(r), jobType)
	if err == jobs.ErrNotFound {
		respondError(w, http.StatusNotFound, "no jobs of this type")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// GetJob returns one job by id.
//
//	GET /api/jobs/id/{id}
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.tracker.Get(r.Context(), chi.URLParam(r, "id"))
	if err == jobs.ErrNotFound {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// HealthCheck reports liveness and dependency status.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := map[string]string{}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			log.Printf("[API] Health check: database ping failed: %v", err)
			status = "degraded"
			checks["database"] = "down"
		} else {
			checks["database"] = "up"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"providers": h.providers,
		"checks":    checks,
	})
}

var jobTypes = map[string]domain.JobType{
	string(domain.JobScanInbox):       domain.JobScanInbox,
	string(domain.JobAnalyzeChildren): domain.JobAnalyzeChildren,
	string(domain.JobExtractTraining): domain.JobExtractTraining,
	string(domain.JobGenerateEmail):   domain.JobGenerateEmail,
}

func parseJobType(s string) (domain.JobType, bool) {
	t, ok := jobTypes[s]
	return t, ok
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
