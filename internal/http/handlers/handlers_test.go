package handlers_test

import (
	archivezip "archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mediastudio/internal/assets"
	"mediastudio/internal/domain"
	"mediastudio/internal/http/handlers"
	"mediastudio/internal/http/httpapi"
	"mediastudio/internal/infra"
	"mediastudio/internal/panel"
	"mediastudio/internal/providers/genai"
)

type fakeClient struct {
	imageData []byte
	imageErr  error
	editParts []genai.Part
	editErr   error
	videoData []byte
	videoErr  error

	editCalls  int
	videoCalls int
}

func (f *fakeClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	return f.imageData, f.imageErr
}

func (f *fakeClient) EditImage(ctx context.Context, prompt string, image genai.SourceImage) ([]genai.Part, error) {
	f.editCalls++
	return f.editParts, f.editErr
}

func (f *fakeClient) GenerateVideo(ctx context.Context, req genai.VideoRequest) ([]byte, error) {
	f.videoCalls++
	return f.videoData, f.videoErr
}

type testEnv struct {
	server *httptest.Server
	store  *assets.Store
	client *fakeClient
}

func newTestEnv(t *testing.T, client *fakeClient) *testEnv {
	t.Helper()
	store := assets.NewStore()
	logger := infra.Logger(zerolog.New(io.Discard))
	sessions := panel.NewManager(client, store, "en")
	app := handlers.NewApp(logger, sessions, store)
	router := httpapi.NewRouter(app, httpapi.Options{Logger: logger, DefaultLocale: "en"})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, client: client}
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/v1/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session status: %d", resp.StatusCode)
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return body.SessionID
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, fileMIME string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename)}
		hdr["Content-Type"] = []string{fileMIME}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestImagesGenerate(t *testing.T) {
	env := newTestEnv(t, &fakeClient{imageData: []byte("png-bytes")})
	sid := env.openSession(t)

	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/generate",
		"application/json", strings.NewReader(`{"prompt":"A Bold CAT","aspect_ratio":"16:9"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var body struct {
		Status   string `json:"status"`
		Image    string `json:"image"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" {
		t.Fatalf("status field: %q", body.Status)
	}
	if !strings.HasPrefix(body.Image, "data:image/png;base64,") {
		t.Fatalf("image field: %q", body.Image)
	}
	if body.Filename != "a-bold-cat.png" {
		t.Fatalf("filename: %q", body.Filename)
	}
}

func TestImagesGenerateValidation(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})
	sid := env.openSession(t)

	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/generate",
		"application/json", strings.NewReader(`{"prompt":"  "}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestImagesGenerateUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &fakeClient{imageErr: fmt.Errorf("%w: image generation failed", domain.ErrUpstream)})
	sid := env.openSession(t)

	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/generate",
		"application/json", strings.NewReader(`{"prompt":"a cat"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestImagesEditPreservesPartOrder(t *testing.T) {
	env := newTestEnv(t, &fakeClient{editParts: []genai.Part{
		{Text: "first"},
		{Data: []byte("img-a"), MIME: "image/png"},
		{Text: "last"},
	}})
	sid := env.openSession(t)

	body, contentType := multipartBody(t, map[string]string{"prompt": "make it night"},
		"image", "photo.png", "image/png", []byte("source"))
	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/edit", contentType, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status: %d (%s)", resp.StatusCode, raw)
	}
	var out struct {
		Parts []struct {
			Type  string `json:"type"`
			Text  string `json:"text"`
			Image string `json:"image"`
		} `json:"parts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Parts) != 3 {
		t.Fatalf("part count: %d", len(out.Parts))
	}
	if out.Parts[0].Type != "text" || out.Parts[0].Text != "first" {
		t.Fatalf("part 0 mismatch: %+v", out.Parts[0])
	}
	if out.Parts[1].Type != "image" || !strings.HasPrefix(out.Parts[1].Image, "data:image/png;base64,") {
		t.Fatalf("part 1 mismatch: %+v", out.Parts[1])
	}
	if out.Parts[2].Type != "text" || out.Parts[2].Text != "last" {
		t.Fatalf("part 2 mismatch: %+v", out.Parts[2])
	}
}

func TestImagesEditRejectsUnsupportedFileType(t *testing.T) {
	client := &fakeClient{}
	env := newTestEnv(t, client)
	sid := env.openSession(t)

	body, contentType := multipartBody(t, map[string]string{"prompt": "edit"},
		"image", "notes.txt", "text/plain", []byte("not an image"))
	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/edit", contentType, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if client.editCalls != 0 {
		t.Fatalf("rejected upload reached the client: %d calls", client.editCalls)
	}
}

func TestImagesEditArchive(t *testing.T) {
	env := newTestEnv(t, &fakeClient{editParts: []genai.Part{
		{Text: "note"},
		{Data: []byte("img-a"), MIME: "image/png"},
		{Data: []byte("img-b"), MIME: "image/png"},
	}})
	sid := env.openSession(t)

	body, contentType := multipartBody(t, map[string]string{"prompt": "Two Variants"},
		"image", "photo.png", "image/png", []byte("source"))
	if resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/images/edit", contentType, body); err != nil {
		t.Fatalf("edit request: %v", err)
	} else {
		resp.Body.Close()
	}

	resp, err := http.Get(env.server.URL + "/v1/sessions/" + sid + "/images/edit/archive")
	if err != nil {
		t.Fatalf("archive request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	zr, err := archivezip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive entries: %d", len(zr.File))
	}
	if zr.File[0].Name != "two-variants-01.png" || zr.File[1].Name != "two-variants-02.png" {
		t.Fatalf("entry names: %q %q", zr.File[0].Name, zr.File[1].Name)
	}
}

func TestImagesEditArchiveWithoutEdit(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})
	sid := env.openSession(t)

	resp, err := http.Get(env.server.URL + "/v1/sessions/" + sid + "/images/edit/archive")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestVideosGenerateAndDownload(t *testing.T) {
	env := newTestEnv(t, &fakeClient{videoData: []byte("mp4-bytes")})
	sid := env.openSession(t)

	body, contentType := multipartBody(t, map[string]string{
		"prompt":       "Waves At Dusk",
		"aspect_ratio": "16:9",
	}, "", "", "", nil)
	resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/videos/generate", contentType, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status: %d (%s)", resp.StatusCode, raw)
	}
	var out struct {
		AssetID     string `json:"asset_id"`
		Filename    string `json:"filename"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Filename != "waves-at-dusk.mp4" {
		t.Fatalf("filename: %q", out.Filename)
	}

	dl, err := http.Get(env.server.URL + out.DownloadURL)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download status: %d", dl.StatusCode)
	}
	if got := dl.Header.Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("content type: %q", got)
	}
	if got := dl.Header.Get("Content-Disposition"); !strings.Contains(got, "waves-at-dusk.mp4") {
		t.Fatalf("content disposition: %q", got)
	}
	data, _ := io.ReadAll(dl.Body)
	if string(data) != "mp4-bytes" {
		t.Fatalf("payload: %q", data)
	}
}

func TestVideosGenerateReplacesPreviousAsset(t *testing.T) {
	client := &fakeClient{videoData: []byte("v1")}
	env := newTestEnv(t, client)
	sid := env.openSession(t)

	generate := func() string {
		body, contentType := multipartBody(t, map[string]string{"prompt": "waves"}, "", "", "", nil)
		resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/videos/generate", contentType, body)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		var out struct {
			AssetID string `json:"asset_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out.AssetID
	}

	first := generate()
	client.videoData = []byte("v2")
	second := generate()

	if first == second {
		t.Fatalf("asset id not replaced")
	}
	if resp, err := http.Get(env.server.URL + "/v1/assets/" + first + "/download"); err != nil {
		t.Fatalf("download: %v", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("replaced asset still downloadable: %d", resp.StatusCode)
		}
	}
	if env.store.Len() != 1 {
		t.Fatalf("store length: %d", env.store.Len())
	}
}

func TestVideoStatusIdle(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})
	sid := env.openSession(t)

	resp, err := http.Get(env.server.URL + "/v1/sessions/" + sid + "/videos/status")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "idle" {
		t.Fatalf("status: %q", out.Status)
	}
}

func TestSessionCloseReleasesAssets(t *testing.T) {
	env := newTestEnv(t, &fakeClient{videoData: []byte("v")})
	sid := env.openSession(t)

	body, contentType := multipartBody(t, map[string]string{"prompt": "waves"}, "", "", "", nil)
	if resp, err := http.Post(env.server.URL+"/v1/sessions/"+sid+"/videos/generate", contentType, body); err != nil {
		t.Fatalf("generate: %v", err)
	} else {
		resp.Body.Close()
	}
	if env.store.Len() != 1 {
		t.Fatalf("expected one blob before close: %d", env.store.Len())
	}

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/v1/sessions/"+sid, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close status: %d", resp.StatusCode)
	}
	if env.store.Len() != 0 {
		t.Fatalf("blobs leaked after close: %d", env.store.Len())
	}

	// The session is gone afterwards.
	resp2, err := http.Get(env.server.URL + "/v1/sessions/" + sid + "/videos/status")
	if err != nil {
		t.Fatalf("status after close: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("closed session still reachable: %d", resp2.StatusCode)
	}
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})

	resp, err := http.Post(env.server.URL+"/v1/sessions/nope/images/generate",
		"application/json", strings.NewReader(`{"prompt":"a cat"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestUnknownAssetDownload(t *testing.T) {
	env := newTestEnv(t, &fakeClient{})

	resp, err := http.Get(env.server.URL + "/v1/assets/nope/download")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
