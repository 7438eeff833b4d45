package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nanogen/internal/domain"
	"nanogen/internal/memstore"
	"nanogen/internal/renderer"
)

type stubRenderer struct {
	result renderer.Result
	err    error
	panics bool
	calls  atomic.Int32
}

func (s *stubRenderer) Render(ctx context.Context, req renderer.Request) (renderer.Result, error) {
	s.calls.Add(1)
	if s.panics {
		panic("backend exploded")
	}
	return s.result, s.err
}

func newGenerationService(t *testing.T, backend renderer.Renderer) (*GenerationService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := NewGenerationService(store.Generations(), store.Stats(), backend, zerolog.Nop(), time.Second)
	return svc, store
}

func TestCreateReturnsProcessingJob(t *testing.T) {
	backend := &stubRenderer{result: renderer.Result{Images: []string{"https://img/1"}, Model: "m", DurationMs: 5}}
	svc, _ := newGenerationService(t, backend)

	job, err := svc.Create(context.Background(), "a misty mountain lake", domain.ModeTextToImage, "session-new", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != domain.StatusProcessing {
		t.Fatalf("status = %q, want %q", job.Status, domain.StatusProcessing)
	}
	if len(job.OutputImages) != 0 {
		t.Fatalf("new job has %d artifacts, want none", len(job.OutputImages))
	}
	if job.SessionID != "session-new" {
		t.Fatalf("session = %q, want %q", job.SessionID, "session-new")
	}
	svc.Wait()
}

func TestCreateRejectsMissingSession(t *testing.T) {
	backend := &stubRenderer{result: renderer.Result{Images: []string{"https://img/1"}}}
	svc, store := newGenerationService(t, backend)

	for _, sessionID := range []string{"", "   "} {
		if _, err := svc.Create(context.Background(), "a misty mountain lake", domain.ModeTextToImage, sessionID, ""); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Create(session=%q) err = %v, want ErrValidation", sessionID, err)
		}
	}
	svc.Wait()
	if got := backend.calls.Load(); got != 0 {
		t.Fatalf("backend called %d times for rejected input", got)
	}
	// Nothing may be persisted either.
	if _, total, err := store.Generations().ListBySession(context.Background(), "", 10, 0); err != nil || total != 0 {
		t.Fatalf("persisted %d jobs for the empty session (err %v)", total, err)
	}
}

func TestCreateRejectsInvalidPrompt(t *testing.T) {
	backend := &stubRenderer{}
	svc, _ := newGenerationService(t, backend)

	if _, err := svc.Create(context.Background(), "hi", domain.ModeTextToImage, "", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	svc.Wait()
	if got := backend.calls.Load(); got != 0 {
		t.Fatalf("backend called %d times for an invalid prompt", got)
	}
}

func TestDispatchSuccessCompletesJob(t *testing.T) {
	backend := &stubRenderer{result: renderer.Result{
		Images:     []string{"https://img/success"},
		Model:      "stub-model",
		DurationMs: 42,
	}}
	svc, store := newGenerationService(t, backend)

	job, err := svc.Create(context.Background(), "a quiet garden at dusk", domain.ModeTextToImage, "session-ok", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Wait()

	got, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", got.Status, domain.StatusCompleted)
	}
	if len(got.OutputImages) != 1 || got.OutputImages[0] != "https://img/success" {
		t.Fatalf("artifacts = %v", got.OutputImages)
	}
	if got.Model != "stub-model" || got.ProcessingTimeMs != 42 {
		t.Fatalf("model/time = %q/%d", got.Model, got.ProcessingTimeMs)
	}

	summary, err := store.Stats().Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.ImagesGenerated != 1 || summary.RequestSuccess != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Visitors != 1 {
		t.Fatalf("visitors = %d, want 1", summary.Visitors)
	}
}

func TestDispatchErrorFailsJob(t *testing.T) {
	backend := &stubRenderer{err: errors.New("backend unavailable")}
	svc, store := newGenerationService(t, backend)

	job, err := svc.Create(context.Background(), "city skyline at night", domain.ModeTextToImage, "session-err", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Wait()

	got, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want %q", got.Status, domain.StatusFailed)
	}
	if len(got.OutputImages) != 0 {
		t.Fatalf("failed job carries artifacts: %v", got.OutputImages)
	}

	summary, err := store.Stats().Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.RequestFail != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestDispatchPanicFailsJob(t *testing.T) {
	backend := &stubRenderer{panics: true}
	svc, _ := newGenerationService(t, backend)

	job, err := svc.Create(context.Background(), "aurora over a frozen lake", domain.ModeTextToImage, "session-panic", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Wait()

	got, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("status after panic = %q, want %q", got.Status, domain.StatusFailed)
	}
}

func TestHistoryReturnsSessionJobs(t *testing.T) {
	backend := &stubRenderer{result: renderer.Result{Images: []string{"https://img/x"}, Model: "m"}}
	svc, _ := newGenerationService(t, backend)

	session := "session-history"
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "beach with palm trees", domain.ModeTextToImage, session, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), "a different session's job", domain.ModeTextToImage, "other", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Wait()

	jobs, total, err := svc.History(context.Background(), session, 2, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(jobs) != 2 {
		t.Fatalf("page size = %d, want 2", len(jobs))
	}
	for _, job := range jobs {
		if job.SessionID != session {
			t.Fatalf("foreign job in history: %q", job.SessionID)
		}
	}
}
