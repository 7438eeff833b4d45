package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GallerySort enumerates supported orderings for public gallery listings.
type GallerySort string

const (
	SortRecent   GallerySort = "recent"
	SortPopular  GallerySort = "popular"
	SortFeatured GallerySort = "featured"
)

// NormalizeGallerySort maps free-form input onto a supported sort, falling
// back to recency.
func NormalizeGallerySort(sort string) GallerySort {
	switch GallerySort(strings.ToLower(strings.TrimSpace(sort))) {
	case SortPopular:
		return SortPopular
	case SortFeatured:
		return SortFeatured
	default:
		return SortRecent
	}
}

const TitleMinLen = 3

// GalleryItem is a promoted, publicly listable presentation of a completed
// generation's result. Items are never deleted in normal flow.
type GalleryItem struct {
	ID               string    `json:"id"`
	GenerationID     string    `json:"generationId"`
	SessionID        string    `json:"sessionId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Image            string    `json:"image"`
	Prompt           string    `json:"prompt"`
	IsPublic         bool      `json:"isPublic"`
	Likes            int       `json:"likes"`
	Featured         bool      `json:"featured"`
	Model            string    `json:"model,omitempty"`
	ProcessingTimeMs int64     `json:"processingTime,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewGalleryItemFromJob promotes a completed job into a public gallery item.
// A job may be promoted any number of times; each call yields an
// independent item.
func NewGalleryItemFromJob(job *GenerationJob, title, description string) (*GalleryItem, error) {
	title = strings.TrimSpace(title)
	if len(title) < TitleMinLen {
		return nil, fmt.Errorf("%w: title must be at least %d characters", ErrValidation, TitleMinLen)
	}
	if job.Status != StatusCompleted || len(job.OutputImages) == 0 {
		return nil, ErrNotCompleted
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Generated with: %q", job.Prompt)
	}
	return &GalleryItem{
		ID:               uuid.NewString(),
		GenerationID:     job.ID,
		SessionID:        job.SessionID,
		Title:            title,
		Description:      description,
		Image:            job.OutputImages[0],
		Prompt:           job.Prompt,
		IsPublic:         true,
		Likes:            0,
		Featured:         false,
		Model:            job.Model,
		ProcessingTimeMs: job.ProcessingTimeMs,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
