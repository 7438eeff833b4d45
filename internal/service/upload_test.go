package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nanogen/internal/domain"
	"nanogen/internal/memstore"
	"nanogen/internal/storage"
)

func newUploadService(t *testing.T) (*UploadService, *storage.FileStore, *memstore.Store) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	mem := memstore.New()
	svc := NewUploadService(mem.Uploads(), store, "/api/files", zerolog.Nop())
	return svc, store, mem
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestSaveStoresValidImage(t *testing.T) {
	svc, _, _ := newUploadService(t)
	data := pngBytes(t, 8, 6)

	file, err := svc.Save(context.Background(), data, "reference.png", "image/png", "session-1")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if file.Width != 8 || file.Height != 6 {
		t.Fatalf("dimensions = %dx%d, want 8x6", file.Width, file.Height)
	}
	if !strings.HasPrefix(file.URL, "/api/files/") {
		t.Fatalf("url = %q", file.URL)
	}
	if !strings.HasSuffix(file.StoredName, ".png") {
		t.Fatalf("stored name = %q", file.StoredName)
	}

	got, contentType, err := svc.Get(context.Background(), file.StoredName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("content type = %q", contentType)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("stored bytes differ from input")
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	svc, store, _ := newUploadService(t)
	data := make([]byte, domain.MaxUploadBytes+1)

	if _, err := svc.Save(context.Background(), data, "big.png", "image/png", "session-1"); !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("err = %v, want ErrUploadRejected", err)
	}
	count, _, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected upload reached storage: %d files", count)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	svc, store, _ := newUploadService(t)

	if _, err := svc.Save(context.Background(), []byte("GIF89a"), "anim.gif", "image/gif", "session-1"); !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("err = %v, want ErrUploadRejected", err)
	}
	count, _, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected upload reached storage: %d files", count)
	}
}

func TestSaveRejectsUndecodablePayload(t *testing.T) {
	svc, _, _ := newUploadService(t)

	if _, err := svc.Save(context.Background(), []byte("not an image at all"), "fake.png", "image/png", "session-1"); !errors.Is(err, domain.ErrUploadRejected) {
		t.Fatalf("err = %v, want ErrUploadRejected", err)
	}
}

func TestSaveRequiresSession(t *testing.T) {
	svc, _, _ := newUploadService(t)

	if _, err := svc.Save(context.Background(), pngBytes(t, 2, 2), "ref.png", "image/png", "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, _ := newUploadService(t)
	file, err := svc.Save(context.Background(), pngBytes(t, 4, 4), "ref.png", "image/png", "session-1")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.Delete(context.Background(), file.StoredName); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), file.StoredName); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, _, err := svc.Get(context.Background(), file.StoredName); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCleanupRemovesOldUploads(t *testing.T) {
	svc, _, mem := newUploadService(t)
	ctx := context.Background()

	old, err := svc.Save(ctx, pngBytes(t, 2, 2), "old.png", "image/png", "session-1")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	old.UploadedAt = time.Now().Add(-10 * 24 * time.Hour)
	if err := mem.Uploads().Delete(ctx, old.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mem.Uploads().Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fresh, err := svc.Save(ctx, pngBytes(t, 2, 2), "fresh.png", "image/png", "session-1")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	removed, err := svc.CleanupOlderThan(ctx, 7)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, _, err := svc.Get(ctx, old.StoredName); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("old file still readable: %v", err)
	}
	if _, _, err := svc.Get(ctx, fresh.StoredName); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}
