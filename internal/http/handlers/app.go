package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nanogen/internal/domain"
	"nanogen/internal/infra"
	"nanogen/internal/service"
)

// App bundles the services behind the HTTP surface.
type App struct {
	Generations *service.GenerationService
	Gallery     *service.GalleryService
	Uploads     *service.UploadService
	Stats       domain.StatsRepository
	Config      *infra.Config
	Log         infra.Logger
}

// NewApp wires the handler set.
func NewApp(generations *service.GenerationService, gallery *service.GalleryService, uploads *service.UploadService, stats domain.StatsRepository, cfg *infra.Config, log infra.Logger) *App {
	return &App{
		Generations: generations,
		Gallery:     gallery,
		Uploads:     uploads,
		Stats:       stats,
		Config:      cfg,
		Log:         log,
	}
}

// json writes the success envelope: {"success":true, ...payload}.
func (a *App) json(w http.ResponseWriter, code int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	a.write(w, code, body)
}

// error writes the failure envelope: {"success":false,"error":...,
// "message"?:...}.
func (a *App) error(w http.ResponseWriter, code int, errText, message string) {
	body := map[string]any{"success": false, "error": errText}
	if message != "" {
		body["message"] = message
	}
	a.write(w, code, body)
}

// domainError maps sentinel errors onto HTTP statuses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotCompleted):
		a.error(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrUploadRejected):
		a.error(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not found", "")
	default:
		a.Log.Error().Err(err).Msg("http: internal error")
		a.error(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (a *App) write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
