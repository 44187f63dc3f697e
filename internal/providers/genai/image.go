package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"mediastudio/internal/domain"
)

// Part is one fragment of an edit response: either text or inline image
// bytes. Exactly one of the two arms is populated.
type Part struct {
	Text string
	Data []byte
	MIME string
}

// IsImage reports whether the part carries inline media.
func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineBytes `json:"image,omitempty"`
}

type inlineBytes struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	SampleCount     int    `json:"sampleCount"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
	OutputMimeType  string `json:"outputMimeType,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage synthesizes a single PNG for the prompt at the requested
// aspect ratio and returns its raw bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	if !ValidAspectRatio(aspectRatio) {
		return nil, fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrInvalidInput, aspectRatio)
	}

	payload := predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount:    1,
			AspectRatio:    aspectRatio,
			OutputMimeType: "image/png",
		},
	}

	var response predictResponse
	path := fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel))
	if err := c.post(ctx, path, payload, &response); err != nil {
		return nil, c.fail(domain.ErrUpstream, "generate_image", "image generation failed", err)
	}

	if len(response.Predictions) == 0 {
		return nil, c.fail(domain.ErrNoResult, "generate_image", "no image was generated", nil)
	}

	data, err := base64.StdEncoding.DecodeString(response.Predictions[0].BytesBase64Encoded)
	if err != nil || len(data) == 0 {
		return nil, c.fail(domain.ErrUpstream, "generate_image", "image payload was unreadable", err)
	}

	c.logger.Debug().
		Str("model", c.imageModel).
		Int("bytes", len(data)).
		Msg("genai: generated image")

	return data, nil
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// EditImage submits an image and an instruction in a single round trip and
// returns the response parts in exactly the order the model produced them.
// The interleaving of text and image fragments is the model's narration of
// the edit, so callers must not reorder or filter it.
func (c *Client) EditImage(ctx context.Context, prompt string, image SourceImage) ([]Part, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	if image.Data == "" {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []contentPart{
				{InlineData: &inlineData{MimeType: image.MIME, Data: image.Data}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.editModel))
	if err := c.post(ctx, path, payload, &response); err != nil {
		return nil, c.fail(domain.ErrUpstream, "edit_image", "image edit failed", err)
	}

	var parts []Part
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil && part.InlineData.Data != "":
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, c.fail(domain.ErrUpstream, "edit_image", "edited image payload was unreadable", err)
				}
				parts = append(parts, Part{Data: data, MIME: part.InlineData.MimeType})
			case part.Text != "":
				parts = append(parts, Part{Text: part.Text})
			}
		}
	}

	if len(parts) == 0 {
		return nil, c.fail(domain.ErrNoResult, "edit_image", "the edit produced no content", nil)
	}

	c.logger.Debug().
		Str("model", c.editModel).
		Int("parts", len(parts)).
		Msg("genai: edited image")

	return parts, nil
}
