package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediastudio/internal/assets"
	"mediastudio/internal/domain"
	"mediastudio/internal/infra"
	"mediastudio/internal/panel"
)

// App is the handler container: panel sessions, the blob store and a logger.
type App struct {
	Logger   infra.Logger
	Sessions *panel.Manager
	Assets   *assets.Store
}

func NewApp(logger infra.Logger, sessions *panel.Manager, store *assets.Store) *App {
	return &App{Logger: logger, Sessions: sessions, Assets: store}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// fail maps a domain error onto the HTTP surface. The message shown is the
// error's own text, which the lower layers already keep user-safe.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrRead):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrBusy):
		a.error(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNoResult), errors.Is(err, domain.ErrMissingResult),
		errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrFetch):
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handlers: unexpected error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
