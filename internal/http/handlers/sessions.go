package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mediastudio/internal/panel"
)

// SessionCreate opens a new studio session (one set of panels).
func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	s := a.Sessions.Open()
	a.json(w, http.StatusCreated, map[string]string{"session_id": s.ID})
}

// SessionClose tears a session down. The video panel's blob, if any, is
// released as part of the teardown.
func (a *App) SessionClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	if err := a.Sessions.CloseSession(id); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (*panel.Session, bool) {
	s, err := a.Sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return s, true
}
