package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type ctxKey int

const ownerKey ctxKey = 0

// ownerHeader identifies the calling account. Upstream auth terminates
// before this service and injects the header.
const ownerHeader = "X-Owner-ID"

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.homeroomhq.com", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ownerHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no owner required)
	r.Get("/health", h.HealthCheck)

	// API routes (owner-scoped)
	r.Route("/api", func(r chi.Router) {
		r.Use(requireOwner)

		r.Route("/analyze", func(r chi.Router) {
			r.Post("/email", h.AnalyzeEmail)
			r.Post("/batch", h.AnalyzeBatch)
			r.Post("/reanalyze", h.ReanalyzeEmail)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/id/{id}", h.GetJob)
			r.Post("/{type}", h.StartJob)
			r.Get("/{type}/latest", h.LatestJob)
		})
	})

	return r
}

// requireOwner rejects API calls without an owner header and stashes the
// owner id in the request context.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(ownerHeader)
		if owner == "" {
			respondError(w, http.StatusBadRequest, "missing "+ownerHeader+" header")
			return
		}
		ctx := contextWithOwner(r.Context(), owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
