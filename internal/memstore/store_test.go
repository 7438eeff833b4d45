package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nanogen/internal/domain"
)

func seedJob(t *testing.T, s *Store, sessionID string) *domain.GenerationJob {
	t.Helper()
	job, err := domain.NewGenerationJob("a foggy mountain at dawn", domain.ModeTextToImage, sessionID, "")
	if err != nil {
		t.Fatalf("NewGenerationJob: %v", err)
	}
	if err := s.Generations().Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestFinalizeAppliesExactlyOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	job := seedJob(t, s, "s1")

	if err := s.Generations().MarkCompleted(ctx, job.ID, []string{"img-1"}, "mock", 1200); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	// A second finalize with a different outcome must not overwrite.
	if err := s.Generations().MarkFailed(ctx, job.ID); !errors.Is(err, domain.ErrStateViolation) {
		t.Fatalf("expected ErrStateViolation, got %v", err)
	}

	got, err := s.Generations().GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status overwritten: %s", got.Status)
	}
	if len(got.OutputImages) != 1 || got.OutputImages[0] != "img-1" {
		t.Errorf("unexpected artifacts: %v", got.OutputImages)
	}
}

func TestFinalizeConcurrentAttemptsSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	job := seedJob(t, s, "s1")

	const attempts = 16
	applied := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				applied <- s.Generations().MarkCompleted(ctx, job.ID, []string{"img"}, "mock", 100)
			} else {
				applied <- s.Generations().MarkFailed(ctx, job.ID)
			}
		}(i)
	}
	wg.Wait()
	close(applied)

	wins := 0
	for err := range applied {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrStateViolation) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning finalize, got %d", wins)
	}
}

func TestListBySessionMostRecentFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedJob(t, s, "s1")
	// Force distinct timestamps.
	time.Sleep(2 * time.Millisecond)
	recent := seedJob(t, s, "s1")
	seedJob(t, s, "other-session")

	jobs, total, err := s.Generations().ListBySession(ctx, "s1", 10, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d (total %d)", len(jobs), total)
	}
	if jobs[0].ID != recent.ID {
		t.Errorf("expected most recent job first")
	}
}

func TestIncrementLikesNoLostUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := &domain.GalleryItem{ID: "g1", Title: "Sunrise", IsPublic: true, CreatedAt: time.Now()}
	if err := s.Gallery().Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Gallery().IncrementLikes(ctx, "g1"); err != nil {
				t.Errorf("IncrementLikes: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Gallery().GetPublicByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetPublicByID: %v", err)
	}
	if got.Likes != n {
		t.Fatalf("expected %d likes, got %d", n, got.Likes)
	}
}

func TestGetPublicByIDHidesPrivate(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Gallery().Create(ctx, &domain.GalleryItem{ID: "hidden", Title: "Hidden", IsPublic: false})
	if _, err := s.Gallery().GetPublicByID(ctx, "hidden"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for private item, got %v", err)
	}
	if _, err := s.Gallery().IncrementLikes(ctx, "hidden"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking private item, got %v", err)
	}
}
