package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediastudio/internal/domain"
)

// VideoRequest describes a video generation job. The source image, when
// present, seeds the first frame.
type VideoRequest struct {
	Prompt          string
	AspectRatio     string
	DurationSeconds int
	Image           *SourceImage
}

// videoOperation is the remote job handle. Every poll returns a fresh handle
// that replaces the previous one; the name is not assumed stable across
// responses.
type videoOperation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    json.RawMessage `json:"error,omitempty"`
	Response *struct {
		GeneratedVideos []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedVideos"`
	} `json:"response,omitempty"`
}

// GenerateVideo submits a video job, polls the long-running operation to a
// terminal state and downloads the result. The credential used for the final
// download never leaves the client. Polling is bounded by the configured
// deadline and aborts early when ctx is cancelled; the remote job itself is
// not told to cancel and keeps running server-side.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	if !ValidAspectRatio(req.AspectRatio) {
		return nil, fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrInvalidInput, req.AspectRatio)
	}

	instance := predictInstance{Prompt: prompt}
	if req.Image != nil && req.Image.Data != "" {
		instance.Image = &inlineBytes{
			BytesBase64Encoded: req.Image.Data,
			MimeType:           req.Image.MIME,
		}
	}
	payload := predictRequest{
		Instances: []predictInstance{instance},
		Parameters: predictParameters{
			SampleCount:     1,
			AspectRatio:     req.AspectRatio,
			DurationSeconds: req.DurationSeconds,
		},
	}

	var op videoOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.post(ctx, path, payload, &op); err != nil {
		return nil, c.fail(domain.ErrUpstream, "generate_video", "video generation could not be started", err)
	}

	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: video job submitted")

	deadline := time.Now().Add(c.pollDeadline)
	polls := 0
	for !op.Done {
		if time.Now().After(deadline) {
			return nil, c.fail(domain.ErrUpstream, "generate_video",
				fmt.Sprintf("video generation timed out after %s", c.pollDeadline),
				fmt.Errorf("deadline exceeded after %d polls", polls))
		}

		select {
		case <-ctx.Done():
			return nil, c.fail(domain.ErrUpstream, "generate_video", "video generation was cancelled", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		polls++
		var next videoOperation
		if err := c.get(ctx, op.Name, &next); err != nil {
			return nil, c.fail(domain.ErrUpstream, "generate_video", "video status check failed", err)
		}
		// The handle is replaced wholesale on every poll.
		op = next

		c.logger.Debug().
			Str("operation", op.Name).
			Int("poll", polls).
			Bool("done", op.Done).
			Msg("genai: video job polled")
	}

	if len(op.Error) > 0 && string(op.Error) != "null" {
		message := operationErrorMessage(op.Error)
		c.logger.Error().
			Str("operation", op.Name).
			RawJSON("upstream_error", op.Error).
			Msg("genai: video job failed")
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, message)
	}

	uri := ""
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		uri = op.Response.GeneratedVideos[0].Video.URI
	}
	if uri == "" {
		return nil, c.fail(domain.ErrMissingResult, "generate_video", "the job finished but returned no video", nil)
	}

	data, err := c.downloadVideo(ctx, uri)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("operation", op.Name).
		Int("polls", polls).
		Int("bytes", len(data)).
		Msg("genai: video downloaded")

	return data, nil
}

// downloadVideo fetches the finished video over a separate authenticated
// request.
func (c *Client) downloadVideo(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, c.fail(domain.ErrFetch, "download_video", "video download failed", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(domain.ErrFetch, "download_video", "video download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.fail(domain.ErrFetch, "download_video",
			fmt.Sprintf("video download failed: %s", resp.Status), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(domain.ErrFetch, "download_video", "video download was interrupted", err)
	}
	return data, nil
}

// operationErrorMessage extracts a human-readable message from an operation
// error. The upstream is inconsistent about the shape: sometimes a structured
// status with a message field, sometimes a bare string, sometimes an
// arbitrary object. The last resort is compact JSON so the caller never sees
// an opaque placeholder.
func operationErrorMessage(raw json.RawMessage) string {
	var structured struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil && structured.Message != "" {
		return structured.Message
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return plain
	}

	compact := strings.TrimSpace(string(raw))
	if compact == "" || compact == "null" {
		return "video generation failed"
	}
	return compact
}
