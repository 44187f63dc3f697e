package media

import "strings"

const (
	maxSlugLength = 50
	fallbackBase  = "generated-media"
)

// SlugFilename derives a download filename from a prompt: lowercased, runs of
// whitespace collapsed to single hyphens, capped at 50 characters. Empty or
// whitespace-only prompts fall back to a placeholder base name.
func SlugFilename(prompt, ext string) string {
	base := strings.Join(strings.Fields(strings.ToLower(prompt)), "-")
	if base == "" {
		base = fallbackBase
	}
	if len(base) > maxSlugLength {
		base = base[:maxSlugLength]
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
