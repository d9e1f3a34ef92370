package handlers

import (
	"encoding/json"
	"net/http"

	"imagestudio/internal/gallery"
	"imagestudio/internal/infra"
	"imagestudio/internal/metrics"
	"imagestudio/internal/studio"
)

// App serves the studio web application.
type App struct {
	Studio  *studio.Service
	Gallery *gallery.Store
	Metrics *metrics.Collector
	Logger  *infra.Logger
}

func NewApp(svc *studio.Service, store *gallery.Store, collector *metrics.Collector, logger *infra.Logger) *App {
	return &App{Studio: svc, Gallery: store, Metrics: collector, Logger: infra.OrDiscard(logger)}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
