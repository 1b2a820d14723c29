package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/ports"
)

// Services are the use cases the router exposes
type Services struct {
	Timelines  ports.TimelineService
	Catalog    ports.CatalogService
	Candidates ports.CandidateService
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates and configures the main application router.
// metrics may be nil, in which case /metrics is not served.
func NewRouter(cfg *config.Config, svc Services, db Pinger, metrics http.Handler, logger *slog.Logger) http.Handler {
	th := NewTimelineHandler(svc.Timelines, logger)
	ch := NewCatalogHandler(svc.Catalog, logger)
	ah := NewCandidateHandler(svc.Candidates, logger)

	mw := NewMiddleware(cfg, logger)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				logger.ErrorContext(r.Context(), "health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Catalog browsing is public
	mux.HandleFunc("GET /api/topics", ch.ListTopics)
	mux.HandleFunc("GET /api/tags", ch.ListTags)
	mux.HandleFunc("GET /api/events", ch.SearchEvents)
	mux.HandleFunc("GET /api/events/{id}", ch.GetEvent)
	mux.HandleFunc("GET /api/standards", ch.SearchStandards)
	mux.HandleFunc("GET /api/standards/frameworks", ch.ListFrameworks)
	mux.HandleFunc("GET /api/standards/{id}", ch.GetStandard)

	// Protected Routes
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("POST /api/timelines", th.CreateTimeline)
	protectedMux.HandleFunc("GET /api/timelines", th.ListTimelines)
	protectedMux.HandleFunc("GET /api/timelines/{id}", th.GetTimeline)
	protectedMux.HandleFunc("PUT /api/timelines/{id}", th.UpdateTimeline)
	protectedMux.HandleFunc("DELETE /api/timelines/{id}", th.DeleteTimeline)
	protectedMux.HandleFunc("POST /api/timelines/{id}/events", th.AddEntry)
	protectedMux.HandleFunc("DELETE /api/timelines/{id}/events/{position}", th.RemoveEntry)
	protectedMux.HandleFunc("PUT /api/timelines/{id}/events/reorder", th.ReorderEntries)

	// Admin Routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/candidates", ah.ListCandidates)
	adminMux.HandleFunc("POST /api/admin/candidates", ah.CreateCandidate)
	adminMux.HandleFunc("POST /api/admin/candidates/batch", ah.CreateBatch)
	adminMux.HandleFunc("GET /api/admin/candidates/{id}", ah.GetCandidate)
	adminMux.HandleFunc("PATCH /api/admin/candidates/{id}", ah.ReviewCandidate)
	adminMux.HandleFunc("GET /api/admin/harvest-batches", ah.ListHarvestBatches)
	adminMux.HandleFunc("POST /api/admin/harvest-batches", ah.CreateHarvestBatch)
	adminMux.HandleFunc("PATCH /api/admin/harvest-batches/{id}", ah.UpdateHarvestBatch)
	protectedMux.Handle("/api/admin/", mw.AdminOnly(adminMux))

	// Since protectedMux contains the full paths, this works for dispatching.
	mux.Handle("/api/", mw.AuthMiddleware(protectedMux))

	return mw.Logging(mw.CORS(mux))
}
