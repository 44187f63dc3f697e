package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediastudio/internal/domain"
)

// Encoded is a transport-safe rendition of an uploaded image: base64 payload
// plus the resolved media type. It is derived fresh for every request and
// never cached.
type Encoded struct {
	Data string
	MIME string
}

var allowedImageMIME = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// AllowedImageMIME reports whether the media type is accepted for uploads.
func AllowedImageMIME(mime string) bool {
	_, ok := allowedImageMIME[normalizeMIME(mime)]
	return ok
}

// EncodeReader validates the declared media type and encodes the reader's
// contents. Validation happens before any bytes are consumed so rejected
// uploads never cost a read. When the declared type is empty the content is
// sniffed instead.
func EncodeReader(r io.Reader, declaredMIME string) (Encoded, error) {
	mime := normalizeMIME(declaredMIME)
	if mime != "" && !AllowedImageMIME(mime) {
		return Encoded{}, fmt.Errorf("%w: unsupported image type %q (use JPEG, PNG or WebP)", domain.ErrInvalidInput, mime)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return Encoded{}, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if len(raw) == 0 {
		return Encoded{}, fmt.Errorf("%w: empty image file", domain.ErrInvalidInput)
	}

	if mime == "" {
		mime = normalizeMIME(http.DetectContentType(raw))
		if !AllowedImageMIME(mime) {
			return Encoded{}, fmt.Errorf("%w: unsupported image type %q (use JPEG, PNG or WebP)", domain.ErrInvalidInput, mime)
		}
	}

	return Encoded{
		Data: base64.StdEncoding.EncodeToString(raw),
		MIME: mime,
	}, nil
}

// DataURI renders bytes as a browser-consumable data URI.
func DataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func normalizeMIME(mime string) string {
	mime = strings.TrimSpace(strings.ToLower(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}
