package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nanogen/internal/domain"
	"nanogen/internal/infra"
	"nanogen/internal/renderer"
)

const finalizeTimeout = 10 * time.Second

// GenerationService owns the job lifecycle: validated creation, a single
// fire-and-forget dispatch to the rendering backend per job, and the single
// guarded finalize that follows it.
type GenerationService struct {
	jobs     domain.GenerationRepository
	stats    domain.StatsRepository
	renderer renderer.Renderer
	logger   infra.Logger
	timeout  time.Duration

	inflight sync.WaitGroup
}

// NewGenerationService wires the service. renderTimeout bounds each backend
// call.
func NewGenerationService(jobs domain.GenerationRepository, stats domain.StatsRepository, backend renderer.Renderer, logger infra.Logger, renderTimeout time.Duration) *GenerationService {
	if renderTimeout <= 0 {
		renderTimeout = 30 * time.Second
	}
	return &GenerationService{
		jobs:     jobs,
		stats:    stats,
		renderer: backend,
		logger:   logger,
		timeout:  renderTimeout,
	}
}

// Create validates input, persists the job in the processing state and
// kicks off the background dispatch. It returns before the render starts;
// the caller observes the outcome by polling Get.
func (s *GenerationService) Create(ctx context.Context, prompt string, mode domain.GenerationMode, sessionID, inputImage string) (*domain.GenerationJob, error) {
	job, err := domain.NewGenerationJob(prompt, mode, sessionID, inputImage)
	if err != nil {
		return nil, err
	}
	_, prior, histErr := s.jobs.ListBySession(ctx, job.SessionID, 1, 0)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	if histErr == nil && prior == 0 {
		// The first job of a session counts as a new visitor.
		s.bumpCounters(ctx, map[string]int{domain.CounterVisitors: 1})
	}

	s.inflight.Add(1)
	go s.dispatch(*job)

	return job, nil
}

// Get returns a job by id.
func (s *GenerationService) Get(ctx context.Context, id string) (*domain.GenerationJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// History returns a session's jobs most recent first with the total count.
func (s *GenerationService) History(ctx context.Context, sessionID string, limit, offset int) ([]domain.GenerationJob, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.ListBySession(ctx, sessionID, limit, offset)
}

// Wait blocks until all in-flight dispatches have finished. Used for
// graceful shutdown and by tests.
func (s *GenerationService) Wait() {
	s.inflight.Wait()
}

// dispatch performs the one render attempt for a job and applies the
// outcome. Every path, including a panicking backend, ends in exactly one
// finalize call.
func (s *GenerationService) dispatch(job domain.GenerationJob) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info().Str("job_id", job.ID).Str("mode", string(job.Mode)).Msg("dispatch: rendering started")

	result, err := s.render(ctx, job)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("dispatch: rendering failed")
		s.finalizeFailed(job.ID)
		return
	}
	s.finalizeCompleted(job.ID, result)
}

// render invokes the backend, converting panics into errors so the
// dispatcher's two-case finalize stays total.
func (s *GenerationService) render(ctx context.Context, job domain.GenerationJob) (result renderer.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	return s.renderer.Render(ctx, renderer.Request{
		JobID:      job.ID,
		Prompt:     job.Prompt,
		Mode:       job.Mode,
		InputImage: job.InputImage,
	})
}

func (s *GenerationService) finalizeCompleted(jobID string, result renderer.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	err := s.jobs.MarkCompleted(ctx, jobID, result.Images, result.Model, result.DurationMs)
	switch {
	case err == nil:
		s.logger.Info().Str("job_id", jobID).Int("images", len(result.Images)).Int64("duration_ms", result.DurationMs).Msg("dispatch: job completed")
		s.bumpCounters(ctx, map[string]int{
			domain.CounterImagesGenerated: len(result.Images),
			domain.CounterRequestSuccess:  1,
		})
	case isStateViolation(err):
		s.logger.Debug().Str("job_id", jobID).Msg("dispatch: job already finalized")
	default:
		// The job may stay non-terminal; degraded but not fatal.
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("dispatch: finalize completed failed")
	}
}

func (s *GenerationService) finalizeFailed(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	err := s.jobs.MarkFailed(ctx, jobID)
	switch {
	case err == nil:
		s.bumpCounters(ctx, map[string]int{domain.CounterRequestFail: 1})
	case isStateViolation(err):
		s.logger.Debug().Str("job_id", jobID).Msg("dispatch: job already finalized")
	default:
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("dispatch: finalize failed errored")
	}
}

func (s *GenerationService) bumpCounters(ctx context.Context, counters map[string]int) {
	if s.stats == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	if err := s.stats.IncrementCounters(ctx, day, counters); err != nil {
		s.logger.Warn().Err(err).Msg("dispatch: stats update failed")
	}
}

func isStateViolation(err error) bool {
	return errors.Is(err, domain.ErrStateViolation)
}
