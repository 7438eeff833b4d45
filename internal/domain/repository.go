package domain

import (
	"context"
	"time"
)

// GenerationRepository defines persistence for generation jobs. The two
// finalize methods apply a guarded single transition: once a job is in a
// terminal state, further calls return ErrStateViolation and change
// nothing.
type GenerationRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, id string) (*GenerationJob, error)
	MarkCompleted(ctx context.Context, id string, images []string, model string, durationMs int64) error
	MarkFailed(ctx context.Context, id string) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]GenerationJob, int, error)
}

// GalleryListParams narrows a public gallery listing.
type GalleryListParams struct {
	Featured bool
	Sort     GallerySort
	Limit    int
	Offset   int
}

// GalleryRepository handles persistence for promoted gallery items. All
// read methods are scoped to public items. IncrementLikes must be atomic
// under concurrent calls on the same item.
type GalleryRepository interface {
	Create(ctx context.Context, item *GalleryItem) error
	GetPublicByID(ctx context.Context, id string) (*GalleryItem, error)
	List(ctx context.Context, params GalleryListParams) ([]GalleryItem, int, error)
	IncrementLikes(ctx context.Context, id string) (int, error)
	ListFeatured(ctx context.Context, limit int) ([]GalleryItem, error)
	ListPopularExcluding(ctx context.Context, exclude []string, limit int) ([]GalleryItem, error)
	Search(ctx context.Context, query string, limit, offset int) ([]GalleryItem, int, error)
}

// UploadRepository records uploaded reference files.
type UploadRepository interface {
	Create(ctx context.Context, file *UploadedFile) error
	GetByStoredName(ctx context.Context, storedName string) (*UploadedFile, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]UploadedFile, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (count int, totalBytes int64, err error)
}

// StatsRepository updates daily metric counters.
type StatsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	Summary(ctx context.Context) (*StatsSummary, error)
}
