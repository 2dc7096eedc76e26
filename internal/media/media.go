// Package media moves images from uploads and remote URLs through tracked
// temporary files into durable object storage.
package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/Kerhoff/TripGuide/internal/apperr"
)

// DefaultMaxBytes is the size ceiling for a single image
const DefaultMaxBytes int64 = 10 << 20

// DefaultMaxPixels is the ceiling on width*height checked before decoding
const DefaultMaxPixels int64 = 50_000_000

// maxKeyAttempts bounds the retries after a storage key collision
const maxKeyAttempts = 3

// allowedTypes maps the accepted base MIME types to the extension used in keys
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrKeyExists is returned by an ObjectStore when the key is already taken
var ErrKeyExists = errors.New("object key already exists")

// ObjectStore is durable storage addressed by key. Put must fail with
// ErrKeyExists instead of overwriting. Delete takes the URL Put returned and
// Owns reports whether a URL names an object the store holds.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
	Owns(url string) bool
}

// Asset is an image that reached durable storage
type Asset struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload is an image posted by the editor. Size is the declared length and
// may be 0 when the client sent none; the spooled byte count is checked
// either way.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BaseType strips parameters from a Content-Type value and lowercases it
func BaseType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// checkType returns the key extension for an allowed content type
func checkType(contentType string) (string, string, error) {
	base := BaseType(contentType)
	ext, ok := allowedTypes[base]
	if !ok {
		if base == "" {
			base = "missing"
		}
		return "", "", apperr.ResourceLimit("content type %s is not an accepted image type", base)
	}
	return base, ext, nil
}
