package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagestudio/internal/http/handlers"
	"imagestudio/internal/infra"
	"imagestudio/internal/metrics"
	"imagestudio/internal/middleware"
)

// NewRouter wires the studio web application.
func NewRouter(cfg *infra.Config, app *handlers.App, collector *metrics.Collector, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	// Forwarded headers are client controlled unless a proxy rewrites them.
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.Metrics(collector),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Handle("/metrics", collector.Handler())

	r.Get("/", app.Index)
	r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/generate", app.Generate)

	r.Get("/static/generated", app.ListGallery)
	r.Get("/static/generated/*", app.ServeGenerated)

	r.Route("/api/gallery", func(r chi.Router) {
		r.Post("/delete/", app.DeleteImage)
		r.Post("/delete/{filename}", app.DeleteImage)
		r.Get("/export", app.ExportGallery)
	})

	return r
}

// NewTextureRouter wires the local texture service.
func NewTextureRouter(app *handlers.TextureApp, collector *metrics.Collector, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.Metrics(collector),
	)

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", collector.Handler())
	r.Post("/generate_texture", app.GenerateTexture)

	return r
}
