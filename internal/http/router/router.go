package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/y0lz/backend-json/internal/http/handlers"
	obs "github.com/y0lz/backend-json/internal/http/middleware"
	"github.com/y0lz/backend-json/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	h *handlers.Handlers,
	admin *handlers.AdminHandler,
	lc *handlers.LifecycleHandler,
	metrics *obs.Metrics,
	gatherer prometheus.Gatherer,
	logger logx.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.Observability(metrics, logger))
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.HealthcheckHead))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// синхронизация и сброс ходят по всем записям, им нужен запас по времени
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(2 * time.Minute))
			r.Post("/sync/people", admin.SyncPeople)
			r.Post("/shifts/reset", admin.ResetShifts)
			r.Post("/shifts/sync-people", lc.SyncShifts)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(10 * time.Second))

			r.Get("/storage", admin.StorageInfo)
			r.Post("/storage/primary", admin.SwitchPrimary)
			r.Get("/stats", admin.Stats)
			r.Get("/availability/{role}", admin.Available)
			r.Get("/settings", admin.Settings)
			r.Patch("/settings", admin.UpdateSettings)

			r.Post("/shifts", lc.OpenShift)
			r.Delete("/shifts/{id}", lc.CloseShift)
			r.Delete("/people/{id}", lc.DeletePerson)
			r.Post("/assignments", lc.CreateAssignment)
			r.Post("/assignments/{id}/cancel", lc.CancelAssignment)
			r.Post("/assignments/{id}/complete", lc.CompleteAssignment)
			r.Delete("/assignments/{id}", lc.RemoveAssignment)
		})
	})
	r.NotFound(http.HandlerFunc(h.NotFound))

	return r
}
