package domain

import (
	"fmt"
	"time"
)

// MaxUploadBytes caps reference image uploads at 10 MiB.
const MaxUploadBytes = 10 << 20

// AllowedUploadTypes lists the accepted reference image content types.
var AllowedUploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadedFile records a reference image stored ahead of an
// image-to-image job. Files are eligible for age-based cleanup regardless
// of job linkage.
type UploadedFile struct {
	ID           string    `json:"id"`
	StoredName   string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	SizeBytes    int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	SessionID    string    `json:"sessionId"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// ValidateUpload checks size and content type before any storage write.
func ValidateUpload(sizeBytes int64, contentType string) error {
	if sizeBytes > MaxUploadBytes {
		return fmt.Errorf("%w: file too large, maximum size is 10MB", ErrUploadRejected)
	}
	if _, ok := AllowedUploadTypes[contentType]; !ok {
		return fmt.Errorf("%w: unsupported content type %q", ErrUploadRejected, contentType)
	}
	return nil
}
