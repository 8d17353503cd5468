// Package storage persists employee photos and hands back the reference the
// employee record keeps.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
)

// PublicPrefix is the URL path the disk store's files are served under.
const PublicPrefix = "uploads"

// DefaultMaxImageBytes applies when no limit is configured.
const DefaultMaxImageBytes int64 = 5 << 20

var (
	ErrUnsupportedImage = internal.NewValidationError("Only .jpg, .jpeg, .png files are allowed!", internal.ErrCodeInvalidImage)
	ErrImageTooLarge    = internal.NewValidationError("image exceeds maximum size", internal.ErrCodeImageTooLarge)
)

// allowedImages maps each accepted extension to the content types it may carry.
var allowedImages = map[string][]string{
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
}

// ImageStore saves an image under name and returns the reference to record.
// Remove takes a reference returned by Save; a missing image is not an error.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Image is an uploaded file that passed the multipart stage.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateImage checks extension, content type and size.
func ValidateImage(img Image, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	ext := strings.ToLower(filepath.Ext(img.Filename))
	types, ok := allowedImages[ext]
	if !ok {
		return ErrUnsupportedImage
	}

	mediaType, _, err := mime.ParseMediaType(img.ContentType)
	if err != nil {
		return ErrUnsupportedImage
	}
	if !contains(types, strings.ToLower(mediaType)) {
		return ErrUnsupportedImage
	}

	if img.Size > maxBytes {
		return ErrImageTooLarge
	}
	return nil
}

// ObjectName is <unix-millis>-<original base name>.
func ObjectName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == 0 || r == ' ' {
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg internal.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "", internal.StorageDriverDisk:
		return NewDiskStore(cfg.UploadDir)
	case internal.StorageDriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
