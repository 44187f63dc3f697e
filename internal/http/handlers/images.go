package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mediastudio/internal/domain"
)

type imageGenerateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type imageGenerateResponse struct {
	Status   string `json:"status"`
	Image    string `json:"image,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ImagesGenerate runs the generate panel for one prompt and returns the
// finished image as a data URI plus its download filename.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput))
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}

	if err := s.Generate.Run(r.Context(), req.Prompt, req.AspectRatio); err != nil {
		a.fail(w, err)
		return
	}

	_, _, dataURI, filename := s.Generate.Snapshot()
	a.json(w, http.StatusOK, imageGenerateResponse{
		Status:   "success",
		Image:    dataURI,
		Filename: filename,
	})
}
