package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nanogen/internal/domain"
)

// UploadRepositoryPG implements domain.UploadRepository backed by
// PostgreSQL.
type UploadRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new upload repository.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepositoryPG {
	return &UploadRepositoryPG{pool: pool}
}

var _ domain.UploadRepository = (*UploadRepositoryPG)(nil)

const uploadColumns = `id, stored_name, original_name, size_bytes, content_type, width, height, session_id, url, uploaded_at`

// Create inserts a new uploaded file record.
func (r *UploadRepositoryPG) Create(ctx context.Context, file *domain.UploadedFile) error {
	query := `
INSERT INTO uploads (id, stored_name, original_name, size_bytes, content_type, width, height, session_id, url, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		file.ID,
		file.StoredName,
		file.OriginalName,
		file.SizeBytes,
		file.ContentType,
		file.Width,
		file.Height,
		file.SessionID,
		file.URL,
		file.UploadedAt,
	)
	return err
}

// GetByStoredName fetches an upload by its unique stored filename.
func (r *UploadRepositoryPG) GetByStoredName(ctx context.Context, storedName string) (*domain.UploadedFile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+uploadColumns+`
FROM uploads
WHERE stored_name = $1;
`, storedName)
	return scanUpload(row)
}

// ListOlderThan returns uploads eligible for the age-based cleanup sweep.
func (r *UploadRepositoryPG) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.UploadedFile, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+uploadColumns+`
FROM uploads
WHERE uploaded_at < $1;
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.UploadedFile
	for rows.Next() {
		file, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// Delete removes an upload record.
func (r *UploadRepositoryPG) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1;`, id)
	return err
}

// Stats reports upload count and combined size.
func (r *UploadRepositoryPG) Stats(ctx context.Context) (int, int64, error) {
	var count int
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM uploads;`).Scan(&count, &total)
	if err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

func scanUpload(row pgx.Row) (*domain.UploadedFile, error) {
	var file domain.UploadedFile
	if err := row.Scan(
		&file.ID,
		&file.StoredName,
		&file.OriginalName,
		&file.SizeBytes,
		&file.ContentType,
		&file.Width,
		&file.Height,
		&file.SessionID,
		&file.URL,
		&file.UploadedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}
