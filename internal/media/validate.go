// Package media validates uploaded post media and stores files in
// Cloudinary or on local disk.
package media

import (
	"fmt"
	"net/http"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

const (
	// MaxImageSizeBytes caps still images (png, jpeg).
	MaxImageSizeBytes = 3 << 20
	// MaxVideoSizeBytes caps animated media (gif, mp4).
	MaxVideoSizeBytes = 15 << 20
)

// Kind is the media slot an upload lands in.
type Kind string

const (
	// KindImage covers png and jpeg.
	KindImage Kind = "image"
	// KindVideo covers gif and mp4.
	KindVideo Kind = "video"
)

// ValidateUpload sniffs the real content type and enforces the per-kind
// size limits. The declared filename or content type is ignored; only the
// bytes decide.
func ValidateUpload(content []byte) (Kind, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}

	switch http.DetectContentType(content) {
	case "image/png", "image/jpeg":
		if len(content) > MaxImageSizeBytes {
			return "", models.NewValidationError(fmt.Sprintf("Image too large (max %dMB)", MaxImageSizeBytes>>20))
		}
		return KindImage, nil
	case "image/gif", "video/mp4":
		if len(content) > MaxVideoSizeBytes {
			return "", models.NewValidationError(fmt.Sprintf("Video too large (max %dMB)", MaxVideoSizeBytes>>20))
		}
		return KindVideo, nil
	default:
		return "", models.NewValidationError("Unsupported media type")
	}
}
