package media

import (
	"strings"
	"testing"
)

func TestSlugFilename(t *testing.T) {
	cases := []struct {
		name   string
		prompt string
		ext    string
		want   string
	}{
		{"lowercases and hyphenates", "  A Bold CAT!! ", "png", "a-bold-cat!!.png"},
		{"collapses inner whitespace", "sunset \t over  the\nbay", "mp4", "sunset-over-the-bay.mp4"},
		{"empty prompt uses placeholder", "", "png", "generated-media.png"},
		{"whitespace-only prompt uses placeholder", "   \t ", "mp4", "generated-media.mp4"},
		{"dotted extension", "dog", ".png", "dog.png"},
		{"no extension", "dog", "", "dog"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SlugFilename(tc.prompt, tc.ext); got != tc.want {
				t.Fatalf("SlugFilename(%q, %q) = %q, want %q", tc.prompt, tc.ext, got, tc.want)
			}
		})
	}
}

func TestSlugFilenameTruncates(t *testing.T) {
	prompt := strings.Repeat("a very long prompt ", 10)
	got := SlugFilename(prompt, "png")
	base := strings.TrimSuffix(got, ".png")
	if len(base) != 50 {
		t.Fatalf("base length = %d, want 50 (%q)", len(base), base)
	}
}
