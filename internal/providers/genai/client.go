package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediastudio/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	EditModel    string
	VideoModel   string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	PollDeadline time.Duration
}

// Client is a thin facade over the Gemini REST API. It owns the three remote
// operations the studio needs (image synthesis, image editing, video
// generation) and funnels every upstream fault through one normalization
// path: full diagnostics go to the logger, callers get a typed, user-safe
// error from the domain taxonomy.
type Client struct {
	apiKey       string
	baseURL      string
	imageModel   string
	editModel    string
	videoModel   string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	pollDeadline time.Duration
}

// SourceImage is an uploaded image attached to a request, already encoded for
// transport by the media package.
type SourceImage struct {
	Data string
	MIME string
}

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"16:9": {},
	"9:16": {},
	"4:3":  {},
	"3:4":  {},
}

// NewClient constructs a Gemini client. A missing API key is a configuration
// fault, not a runtime condition, so it is rejected here.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("genai: API key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No Timeout here: video downloads and long polls are bounded by the
		// request context instead.
		httpClient = &http.Client{}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	pollDeadline := opts.PollDeadline
	if pollDeadline <= 0 {
		pollDeadline = 10 * time.Minute
	}

	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		imageModel:   defaultModel(opts.ImageModel, "imagen-4.0-generate-001"),
		editModel:    defaultModel(opts.EditModel, "gemini-2.5-flash-image"),
		videoModel:   defaultModel(opts.VideoModel, "veo-2.0-generate-001"),
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		pollDeadline: pollDeadline,
	}, nil
}

// ValidAspectRatio reports whether the ratio is one the upstream accepts.
func ValidAspectRatio(ratio string) bool {
	_, ok := allowedAspectRatios[strings.TrimSpace(ratio)]
	return ok
}

func defaultModel(model, fallback string) string {
	if strings.TrimSpace(model) == "" {
		return fallback
	}
	return model
}

type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// post sends a JSON payload to an API path and decodes the response into out.
// The credential travels as a query parameter and never appears in returned
// errors.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// get issues an authenticated GET against an API path and decodes into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// fail logs the full fault and returns a concise typed error. The raw error is
// never surfaced to callers.
func (c *Client) fail(kind error, op, message string, cause error) error {
	evt := c.logger.Error().Str("op", op)
	if cause != nil {
		evt = evt.Err(cause)
	}
	evt.Msg("genai: " + message)
	return fmt.Errorf("%w: %s", kind, message)
}
