package handlers

import (
	"fmt"
	"net/http"

	"mediastudio/internal/domain"
	"mediastudio/internal/media"
	"mediastudio/internal/panel"
	"mediastudio/internal/providers/genai"
	"mediastudio/pkg/zip"
)

const maxUploadBytes = 32 << 20

type editPartDTO struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type editResponse struct {
	Status   string        `json:"status"`
	Parts    []editPartDTO `json:"parts"`
	Filename string        `json:"filename,omitempty"`
}

// ImagesEdit accepts a multipart form with a prompt and an image, submits
// both in a single round trip and returns the response parts in model order.
func (a *App) ImagesEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.fail(w, fmt.Errorf("%w: invalid multipart payload", domain.ErrInvalidInput))
		return
	}
	prompt := r.FormValue("prompt")

	file, header, err := r.FormFile("image")
	if err != nil {
		a.fail(w, fmt.Errorf("%w: image file is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	encoded, err := media.EncodeReader(file, header.Header.Get("Content-Type"))
	if err != nil {
		a.fail(w, err)
		return
	}

	if err := s.Edit.Run(r.Context(), prompt, genai.SourceImage{Data: encoded.Data, MIME: encoded.MIME}); err != nil {
		a.fail(w, err)
		return
	}

	_, _, parts, base := s.Edit.Snapshot()
	out := make([]editPartDTO, 0, len(parts))
	for _, part := range parts {
		if part.IsImage() {
			out = append(out, editPartDTO{Type: "image", Image: media.DataURI(part.MIME, part.Data)})
			continue
		}
		out = append(out, editPartDTO{Type: "text", Text: part.Text})
	}
	a.json(w, http.StatusOK, editResponse{Status: "success", Parts: out, Filename: base + ".png"})
}

// ImagesEditArchive bundles the image parts of the last successful edit into
// a zip download.
func (a *App) ImagesEditArchive(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	status, _, parts, base := s.Edit.Snapshot()
	if status != panel.StatusSuccess {
		a.fail(w, fmt.Errorf("%w: no finished edit to archive", domain.ErrNotFound))
		return
	}

	var bundle []zip.Asset
	index := 0
	for _, part := range parts {
		if !part.IsImage() {
			continue
		}
		index++
		bundle = append(bundle, zip.Asset{
			Filename: fmt.Sprintf("%s-%02d.png", base, index),
			MIME:     part.MIME,
			Data:     part.Data,
		})
	}
	if len(bundle) == 0 {
		a.fail(w, fmt.Errorf("%w: the edit produced no images", domain.ErrNotFound))
		return
	}

	archive := zip.ArchiveAssets(bundle)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".zip"))
	_, _ = w.Write(archive)
}
