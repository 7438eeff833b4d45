// Package memstore provides mutex-guarded in-memory implementations of the
// domain repositories. It backs development deployments without a database
// and the test suites.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"nanogen/internal/domain"
)

// Store holds all records behind a single lock. Repository views over it
// are obtained from Generations, Gallery, Uploads and Stats.
type Store struct {
	mu sync.RWMutex

	generations map[string]*domain.GenerationJob
	gallery     map[string]*domain.GalleryItem
	uploads     map[string]*domain.UploadedFile
	stats       map[string]*domain.StatsDaily
}

// New creates an empty store.
func New() *Store {
	return &Store{
		generations: map[string]*domain.GenerationJob{},
		gallery:     map[string]*domain.GalleryItem{},
		uploads:     map[string]*domain.UploadedFile{},
		stats:       map[string]*domain.StatsDaily{},
	}
}

// Generations returns the job repository view.
func (s *Store) Generations() domain.GenerationRepository { return &generationRepo{s} }

// Gallery returns the gallery repository view.
func (s *Store) Gallery() domain.GalleryRepository { return &galleryRepo{s} }

// Uploads returns the upload repository view.
func (s *Store) Uploads() domain.UploadRepository { return &uploadRepo{s} }

// Stats returns the stats repository view.
func (s *Store) Stats() domain.StatsRepository { return &statsRepo{s} }

// SetFeatured toggles curation on a gallery item. Used by operators and
// tests; there is no public endpoint for it.
func (s *Store) SetFeatured(id string, featured bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.gallery[id]; ok {
		item.Featured = featured
	}
}

// --- generation repository ---

type generationRepo struct{ s *Store }

var _ domain.GenerationRepository = (*generationRepo)(nil)

func (r *generationRepo) Create(ctx context.Context, job *domain.GenerationJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.generations[job.ID] = copyJob(job)
	return nil
}

func (r *generationRepo) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.generations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(job), nil
}

func (r *generationRepo) MarkCompleted(ctx context.Context, id string, images []string, model string, durationMs int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.generations[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return domain.ErrStateViolation
	}
	job.Status = domain.StatusCompleted
	job.OutputImages = append(job.OutputImages, images...)
	job.Model = model
	job.ProcessingTimeMs = durationMs
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *generationRepo) MarkFailed(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.generations[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return domain.ErrStateViolation
	}
	job.Status = domain.StatusFailed
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *generationRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.GenerationJob, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []*domain.GenerationJob
	for _, job := range r.s.generations {
		if job.SessionID == sessionID {
			matched = append(matched, job)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	page := paginate(matched, limit, offset)
	out := make([]domain.GenerationJob, 0, len(page))
	for _, job := range page {
		out = append(out, *copyJob(job))
	}
	return out, total, nil
}

// --- gallery repository ---

type galleryRepo struct{ s *Store }

var _ domain.GalleryRepository = (*galleryRepo)(nil)

func (r *galleryRepo) Create(ctx context.Context, item *domain.GalleryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *item
	r.s.gallery[item.ID] = &cp
	return nil
}

func (r *galleryRepo) GetPublicByID(ctx context.Context, id string) (*domain.GalleryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.gallery[id]
	if !ok || !item.IsPublic {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *galleryRepo) List(ctx context.Context, params domain.GalleryListParams) ([]domain.GalleryItem, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.s.publicItems(func(item *domain.GalleryItem) bool {
		return !params.Featured || item.Featured
	})
	switch params.Sort {
	case domain.SortPopular:
		sortByLikesThenRecency(items)
	case domain.SortFeatured:
		sort.Slice(items, func(i, j int) bool {
			if items[i].Featured != items[j].Featured {
				return items[i].Featured
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	default:
		sort.Slice(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
	total := len(items)
	return valueItems(paginate(items, params.Limit, params.Offset)), total, nil
}

func (r *galleryRepo) IncrementLikes(ctx context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.gallery[id]
	if !ok || !item.IsPublic {
		return 0, domain.ErrNotFound
	}
	item.Likes++
	return item.Likes, nil
}

func (r *galleryRepo) ListFeatured(ctx context.Context, limit int) ([]domain.GalleryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.s.publicItems(func(item *domain.GalleryItem) bool { return item.Featured })
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return valueItems(paginate(items, limit, 0)), nil
}

func (r *galleryRepo) ListPopularExcluding(ctx context.Context, exclude []string, limit int) ([]domain.GalleryItem, error) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.s.publicItems(func(item *domain.GalleryItem) bool {
		_, skip := excluded[item.ID]
		return !skip
	})
	sortByLikesThenRecency(items)
	return valueItems(paginate(items, limit, 0)), nil
}

func (r *galleryRepo) Search(ctx context.Context, query string, limit, offset int) ([]domain.GalleryItem, int, error) {
	q := strings.ToLower(query)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := r.s.publicItems(func(item *domain.GalleryItem) bool {
		return strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Description), q) ||
			strings.Contains(strings.ToLower(item.Prompt), q)
	})
	sortByLikesThenRecency(items)
	total := len(items)
	return valueItems(paginate(items, limit, offset)), total, nil
}

// --- upload repository ---

type uploadRepo struct{ s *Store }

var _ domain.UploadRepository = (*uploadRepo)(nil)

func (r *uploadRepo) Create(ctx context.Context, file *domain.UploadedFile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *file
	r.s.uploads[file.ID] = &cp
	return nil
}

func (r *uploadRepo) GetByStoredName(ctx context.Context, storedName string) (*domain.UploadedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, file := range r.s.uploads {
		if file.StoredName == storedName {
			cp := *file
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *uploadRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.UploadedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.UploadedFile
	for _, file := range r.s.uploads {
		if file.UploadedAt.Before(cutoff) {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (r *uploadRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.uploads, id)
	return nil
}

func (r *uploadRepo) Stats(ctx context.Context) (int, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, file := range r.s.uploads {
		total += file.SizeBytes
	}
	return len(r.s.uploads), total, nil
}

// --- stats repository ---

type statsRepo struct{ s *Store }

var _ domain.StatsRepository = (*statsRepo)(nil)

func (r *statsRepo) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.stats[day]
	if !ok {
		row = &domain.StatsDaily{Day: day}
		r.s.stats[day] = row
	}
	row.ImagesGenerated += counters[domain.CounterImagesGenerated]
	row.RequestSuccess += counters[domain.CounterRequestSuccess]
	row.RequestFail += counters[domain.CounterRequestFail]
	row.Visitors += counters[domain.CounterVisitors]
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *statsRepo) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	summary := &domain.StatsSummary{}
	for _, row := range r.s.stats {
		summary.ImagesGenerated += row.ImagesGenerated
		summary.RequestSuccess += row.RequestSuccess
		summary.RequestFail += row.RequestFail
		summary.Visitors += row.Visitors
	}
	return summary, nil
}

// --- helpers ---

func (s *Store) publicItems(keep func(*domain.GalleryItem) bool) []*domain.GalleryItem {
	var out []*domain.GalleryItem
	for _, item := range s.gallery {
		if item.IsPublic && keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func sortByLikesThenRecency(items []*domain.GalleryItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Likes != items[j].Likes {
			return items[i].Likes > items[j].Likes
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func valueItems(items []*domain.GalleryItem) []domain.GalleryItem {
	out := make([]domain.GalleryItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}

func copyJob(job *domain.GenerationJob) *domain.GenerationJob {
	cp := *job
	cp.OutputImages = append([]string(nil), job.OutputImages...)
	return &cp
}
