package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mediastudio/internal/domain"
	"mediastudio/internal/media"
	"mediastudio/internal/middleware"
	"mediastudio/internal/providers/genai"
)

type videoGenerateResponse struct {
	Status      string `json:"status"`
	AssetID     string `json:"asset_id"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

type videoStatusResponse struct {
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	AssetID         string `json:"asset_id,omitempty"`
	ProgressMessage string `json:"progress_message,omitempty"`
}

// VideosGenerate submits a video job and blocks until the remote operation
// reaches a terminal state. The response references the session's owned blob;
// a previous video, if any, has been released by the time this returns.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.fail(w, fmt.Errorf("%w: invalid multipart payload", domain.ErrInvalidInput))
		return
	}

	req := genai.VideoRequest{
		Prompt:          r.FormValue("prompt"),
		AspectRatio:     r.FormValue("aspect_ratio"),
		DurationSeconds: 8,
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if raw := r.FormValue("duration_seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			a.fail(w, fmt.Errorf("%w: duration_seconds must be a positive integer", domain.ErrInvalidInput))
			return
		}
		req.DurationSeconds = seconds
	}

	// The seed image is optional; everything else about it mirrors the edit
	// upload path.
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		encoded, err := media.EncodeReader(file, header.Header.Get("Content-Type"))
		if err != nil {
			a.fail(w, err)
			return
		}
		req.Image = &genai.SourceImage{Data: encoded.Data, MIME: encoded.MIME}
	case errors.Is(err, http.ErrMissingFile):
		// text-to-video
	default:
		a.fail(w, fmt.Errorf("%w: invalid image upload", domain.ErrInvalidInput))
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	if err := s.Video.Run(r.Context(), locale, req); err != nil {
		a.fail(w, err)
		return
	}

	_, _, assetID, _ := s.Video.Snapshot()
	a.json(w, http.StatusOK, videoGenerateResponse{
		Status:      "success",
		AssetID:     assetID,
		Filename:    s.Video.Filename(),
		DownloadURL: "/v1/assets/" + assetID + "/download",
	})
}

// VideoStatus reports the video panel's state, including the rotating
// progress message while a job is in flight.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	status, errMsg, assetID, progress := s.Video.Snapshot()
	a.json(w, http.StatusOK, videoStatusResponse{
		Status:          string(status),
		Error:           errMsg,
		AssetID:         assetID,
		ProgressMessage: progress,
	})
}
