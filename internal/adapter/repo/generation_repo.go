package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nanogen/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository backed by
// PostgreSQL.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new generation repository.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)

// Create inserts a new job record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generations (id, session_id, prompt, mode, input_image, output_images, status, model, processing_time_ms, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.SessionID,
		job.Prompt,
		job.Mode,
		job.InputImage,
		job.OutputImages,
		job.Status,
		job.Model,
		job.ProcessingTimeMs,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, session_id, prompt, mode, input_image, output_images, status, model, processing_time_ms, created_at, updated_at
FROM generations
WHERE id = $1;
`, id)
	return scanGeneration(row)
}

// MarkCompleted applies the success outcome with a compare-and-set on the
// current status, so an already-terminal job is never overwritten.
func (r *GenerationRepositoryPG) MarkCompleted(ctx context.Context, id string, images []string, model string, durationMs int64) error {
	query := `
UPDATE generations
SET status = 'completed',
    output_images = output_images || $2,
    model = $3,
    processing_time_ms = $4,
    updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'processing');
`
	tag, err := r.pool.Exec(ctx, query, id, images, model, durationMs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.finalizeConflict(ctx, id)
	}
	return nil
}

// MarkFailed applies the failure outcome under the same guard as
// MarkCompleted.
func (r *GenerationRepositoryPG) MarkFailed(ctx context.Context, id string) error {
	query := `
UPDATE generations
SET status = 'failed',
    updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'processing');
`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.finalizeConflict(ctx, id)
	}
	return nil
}

// ListBySession returns the session's jobs most recent first, plus the
// total for pagination.
func (r *GenerationRepositoryPG) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.GenerationJob, int, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, session_id, prompt, mode, input_image, output_images, status, model, processing_time_ms, created_at, updated_at
FROM generations
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`, sessionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generations WHERE session_id = $1;`, sessionID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// finalizeConflict distinguishes a missing job from one that already
// reached a terminal state.
func (r *GenerationRepositoryPG) finalizeConflict(ctx context.Context, id string) error {
	var status domain.GenerationStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM generations WHERE id = $1;`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrStateViolation
}

func scanGeneration(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	if err := row.Scan(
		&job.ID,
		&job.SessionID,
		&job.Prompt,
		&job.Mode,
		&job.InputImage,
		&job.OutputImages,
		&job.Status,
		&job.Model,
		&job.ProcessingTimeMs,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if job.OutputImages == nil {
		job.OutputImages = []string{}
	}
	return &job, nil
}
