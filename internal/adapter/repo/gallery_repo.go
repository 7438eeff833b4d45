package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nanogen/internal/domain"
)

// GalleryRepositoryPG implements domain.GalleryRepository backed by
// PostgreSQL.
type GalleryRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGalleryRepository creates a new gallery repository.
func NewGalleryRepository(pool *pgxpool.Pool) *GalleryRepositoryPG {
	return &GalleryRepositoryPG{pool: pool}
}

var _ domain.GalleryRepository = (*GalleryRepositoryPG)(nil)

const galleryColumns = `id, generation_id, session_id, title, description, image, prompt, is_public, likes, featured, model, processing_time_ms, created_at`

// Create inserts a new gallery item.
func (r *GalleryRepositoryPG) Create(ctx context.Context, item *domain.GalleryItem) error {
	query := `
INSERT INTO gallery (id, generation_id, session_id, title, description, image, prompt, is_public, likes, featured, model, processing_time_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.GenerationID,
		item.SessionID,
		item.Title,
		item.Description,
		item.Image,
		item.Prompt,
		item.IsPublic,
		item.Likes,
		item.Featured,
		item.Model,
		item.ProcessingTimeMs,
		item.CreatedAt,
	)
	return err
}

// GetPublicByID fetches a public item by id.
func (r *GalleryRepositoryPG) GetPublicByID(ctx context.Context, id string) (*domain.GalleryItem, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+galleryColumns+`
FROM gallery
WHERE id = $1 AND is_public = TRUE;
`, id)
	return scanGalleryItem(row)
}

// List returns a page of public items under the requested filter and sort,
// plus the total for pagination.
func (r *GalleryRepositoryPG) List(ctx context.Context, params domain.GalleryListParams) ([]domain.GalleryItem, int, error) {
	where := "is_public = TRUE"
	if params.Featured {
		where += " AND featured = TRUE"
	}

	var order string
	switch params.Sort {
	case domain.SortPopular:
		order = "likes DESC, created_at DESC"
	case domain.SortFeatured:
		order = "featured DESC, created_at DESC"
	default:
		order = "created_at DESC"
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+galleryColumns+`
FROM gallery
WHERE `+where+`
ORDER BY `+order+`
LIMIT $1 OFFSET $2;
`, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectGalleryItems(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gallery WHERE `+where+`;`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IncrementLikes bumps the like counter in a single atomic statement and
// returns the new value.
func (r *GalleryRepositoryPG) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := r.pool.QueryRow(ctx, `
UPDATE gallery
SET likes = likes + 1
WHERE id = $1 AND is_public = TRUE
RETURNING likes;
`, id).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// ListFeatured returns the primary showcase set: featured public items,
// most recent first.
func (r *GalleryRepositoryPG) ListFeatured(ctx context.Context, limit int) ([]domain.GalleryItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+galleryColumns+`
FROM gallery
WHERE is_public = TRUE AND featured = TRUE
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	return collectGalleryItems(rows)
}

// ListPopularExcluding returns the backfill set: public items not already
// selected, ranked by likes then recency.
func (r *GalleryRepositoryPG) ListPopularExcluding(ctx context.Context, exclude []string, limit int) ([]domain.GalleryItem, error) {
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+galleryColumns+`
FROM gallery
WHERE is_public = TRUE AND NOT (id = ANY($1))
ORDER BY likes DESC, created_at DESC
LIMIT $2;
`, exclude, limit)
	if err != nil {
		return nil, err
	}
	return collectGalleryItems(rows)
}

// Search matches the query case-insensitively against title, description
// and prompt within public items.
func (r *GalleryRepositoryPG) Search(ctx context.Context, query string, limit, offset int) ([]domain.GalleryItem, int, error) {
	pattern := "%" + escapeLike(query) + "%"
	where := `is_public = TRUE AND (title ILIKE $1 OR description ILIKE $1 OR prompt ILIKE $1)`

	rows, err := r.pool.Query(ctx, `
SELECT `+galleryColumns+`
FROM gallery
WHERE `+where+`
ORDER BY likes DESC, created_at DESC
LIMIT $2 OFFSET $3;
`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectGalleryItems(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gallery WHERE `+where+`;`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectGalleryItems(rows pgx.Rows) ([]domain.GalleryItem, error) {
	defer rows.Close()
	var items []domain.GalleryItem
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanGalleryItem(row pgx.Row) (*domain.GalleryItem, error) {
	var item domain.GalleryItem
	if err := row.Scan(
		&item.ID,
		&item.GenerationID,
		&item.SessionID,
		&item.Title,
		&item.Description,
		&item.Image,
		&item.Prompt,
		&item.IsPublic,
		&item.Likes,
		&item.Featured,
		&item.Model,
		&item.ProcessingTimeMs,
		&item.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
