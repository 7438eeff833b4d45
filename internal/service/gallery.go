package service

import (
	"context"
	"fmt"
	"strings"

	"nanogen/internal/domain"
	"nanogen/internal/infra"
)

// DefaultShowcaseLimit bounds the homepage showcase when the caller does
// not ask for a specific size.
const DefaultShowcaseLimit = 4

// GalleryService curates completed generations into the public gallery.
type GalleryService struct {
	gallery domain.GalleryRepository
	jobs    domain.GenerationRepository
	logger  infra.Logger
}

// NewGalleryService wires the service.
func NewGalleryService(gallery domain.GalleryRepository, jobs domain.GenerationRepository, logger infra.Logger) *GalleryService {
	return &GalleryService{gallery: gallery, jobs: jobs, logger: logger}
}

// Promote copies a completed job's first artifact into a new public
// gallery item. Promoting the same job again creates another independent
// item.
func (s *GalleryService) Promote(ctx context.Context, jobID, title, description string) (*domain.GalleryItem, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	item, err := domain.NewGalleryItemFromJob(job, title, description)
	if err != nil {
		return nil, err
	}
	if err := s.gallery.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create gallery item: %w", err)
	}
	s.logger.Info().Str("gallery_id", item.ID).Str("job_id", jobID).Msg("gallery: job promoted")
	return item, nil
}

// ListResult is a paginated gallery page.
type ListResult struct {
	Items   []domain.GalleryItem
	Total   int
	HasMore bool
}

// List returns a page of public items.
func (s *GalleryService) List(ctx context.Context, params domain.GalleryListParams) (*ListResult, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	items, total, err := s.gallery.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:   items,
		Total:   total,
		HasMore: params.Offset+params.Limit < total,
	}, nil
}

// Get returns a single public item.
func (s *GalleryService) Get(ctx context.Context, id string) (*domain.GalleryItem, error) {
	return s.gallery.GetPublicByID(ctx, id)
}

// Like atomically increments an item's like counter and returns the new
// value.
func (s *GalleryService) Like(ctx context.Context, id string) (int, error) {
	return s.gallery.IncrementLikes(ctx, id)
}

// Showcase selects the bounded display set: featured items most recent
// first, backfilled with the most liked remaining public items. The two
// sub-lists are concatenated, not re-sorted globally.
func (s *GalleryService) Showcase(ctx context.Context, limit int) ([]domain.GalleryItem, error) {
	if limit <= 0 {
		limit = DefaultShowcaseLimit
	}
	primary, err := s.gallery.ListFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(primary) >= limit {
		return primary, nil
	}

	exclude := make([]string, 0, len(primary))
	for _, item := range primary {
		exclude = append(exclude, item.ID)
	}
	backfill, err := s.gallery.ListPopularExcluding(ctx, exclude, limit-len(primary))
	if err != nil {
		return nil, err
	}
	return append(primary, backfill...), nil
}

// Search matches public items against title, description and prompt.
func (s *GalleryService) Search(ctx context.Context, query string, limit, offset int) (*ListResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.gallery.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:   items,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}
