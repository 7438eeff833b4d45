package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "uploads/test.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "uploads/test.png" {
		t.Errorf("unexpected key %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected contents %q", data)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if _, err := store.Read(context.Background(), "uploads/nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()
	if _, err := store.Write(ctx, "a.jpg", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Deleting an absent file succeeds.
	if err := store.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if _, err := store.Write(context.Background(), "../escape.txt", []byte("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestFileStoreCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	ctx := context.Background()

	if _, err := store.Write(ctx, "old.png", []byte("old")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := store.Write(ctx, "new.png", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.png"), stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed, err := store.CleanupOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}
	if _, err := store.Read(ctx, "new.png"); err != nil {
		t.Errorf("new file should survive cleanup: %v", err)
	}
	if _, err := store.Read(ctx, "old.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old file should be gone, got %v", err)
	}
}

func TestFileStoreStats(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()
	_, _ = store.Write(ctx, "a.png", []byte("12345"))
	_, _ = store.Write(ctx, "sub/b.png", []byte("123"))

	count, total, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 2 || total != 8 {
		t.Fatalf("expected 2 files / 8 bytes, got %d / %d", count, total)
	}
}
