package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// ErrNotFound is returned for keys that hold no object.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for logo object storage.
type Storage interface {
	// Upload stores an object and returns its key and public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for key.
	GetURL(ctx context.Context, key string) (string, error)
}

// UploadInput holds the parameters for uploading an object.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}

// logoExtensions maps accepted logo content types to file extensions.
var logoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MaxLogoSize is the largest accepted logo upload.
const MaxLogoSize = 5 << 20

// LogoExtension returns the extension for contentType and whether it is an
// accepted logo type.
func LogoExtension(contentType string) (string, bool) {
	ext, ok := logoExtensions[contentType]
	return ext, ok
}

// LogoKey returns a fresh object key under companies/<companyID>/.
func LogoKey(companyID, contentType string) string {
	ext, _ := LogoExtension(contentType)
	return fmt.Sprintf("companies/%s/%s%s", companyID, uuid.NewString(), ext)
}
