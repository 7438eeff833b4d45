package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestGetOrCreateSessionIDPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")

	first, err := GetOrCreateSessionID(path)
	if err != nil {
		t.Fatalf("GetOrCreateSessionID: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", first, err)
	}

	second, err := GetOrCreateSessionID(path)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second != first {
		t.Fatalf("session id changed: %q then %q", first, second)
	}
}

func TestGetOrCreateSessionIDReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if err := os.WriteFile(path, []byte("existing-session-id\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	id, err := GetOrCreateSessionID(path)
	if err != nil {
		t.Fatalf("GetOrCreateSessionID: %v", err)
	}
	if id != "existing-session-id" {
		t.Fatalf("id = %q", id)
	}
}
