package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// AssetDownload streams a stored blob as a file download. Released or unknown
// ids are indistinguishable: both are 404.
func (a *App) AssetDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "asset_id")
	data, mime, filename, err := a.Assets.Get(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}
