// Package app wires storage, services and the router from a Config.
package app

import (
	"log/slog"
	"net/http"

	"github.com/lessonlines/lessonlines/pkg/adapters/handler"
	"github.com/lessonlines/lessonlines/pkg/adapters/repository/sqlite"
	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/core/services"
	"github.com/lessonlines/lessonlines/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	Repo    *sqlite.Repository
	Handler http.Handler
	Metrics *metrics.Recorder
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	svc := handler.Services{
		Timelines: services.NewTimelineService(repo, repo, services.TimelineOptions{
			ReorderPolicy: cfg.ReorderPolicy,
			Locking:       cfg.TimelineLocking,
			Metrics:       rec,
			Logger:        logger,
		}),
		Catalog:    services.NewCatalogService(repo),
		Candidates: services.NewCandidateService(repo, repo),
	}

	logger.Info("storage ready",
		"reorder_policy", cfg.ReorderPolicy.String(),
		"timeline_locking", cfg.TimelineLocking,
	)

	return &App{
		Repo:    repo,
		Handler: handler.NewRouter(cfg, svc, repo, rec.Handler(), logger),
		Metrics: rec,
	}, nil
}

func (a *App) Close() error {
	return a.Repo.Close()
}
