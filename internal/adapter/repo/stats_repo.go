package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"nanogen/internal/domain"
)

// StatsRepositoryPG implements domain.StatsRepository using an upsert per
// day.
type StatsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepositoryPG {
	return &StatsRepositoryPG{pool: pool}
}

var _ domain.StatsRepository = (*StatsRepositoryPG)(nil)

// IncrementCounters upserts metrics for the provided day.
func (r *StatsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	query := `
INSERT INTO stats_daily (day, images_generated, request_success, request_fail, visitors, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (day) DO UPDATE SET
    images_generated = stats_daily.images_generated + EXCLUDED.images_generated,
    request_success = stats_daily.request_success + EXCLUDED.request_success,
    request_fail = stats_daily.request_fail + EXCLUDED.request_fail,
    visitors = stats_daily.visitors + EXCLUDED.visitors,
    updated_at = NOW();
`
	_, err := r.pool.Exec(ctx, query,
		day,
		counters[domain.CounterImagesGenerated],
		counters[domain.CounterRequestSuccess],
		counters[domain.CounterRequestFail],
		counters[domain.CounterVisitors],
	)
	return err
}

// Summary returns counters aggregated across all days.
func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	row := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(images_generated), 0), COALESCE(SUM(request_success), 0), COALESCE(SUM(request_fail), 0), COALESCE(SUM(visitors), 0)
FROM stats_daily;
`)
	var summary domain.StatsSummary
	if err := row.Scan(&summary.ImagesGenerated, &summary.RequestSuccess, &summary.RequestFail, &summary.Visitors); err != nil {
		return nil, err
	}
	return &summary, nil
}
