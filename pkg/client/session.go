package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func defaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "nanogen", "session"), nil
}

// GetOrCreateSessionID returns the persisted session id, creating and
// storing a fresh one on first use. path may be empty to use the default
// location. The server treats the value as opaque.
func GetOrCreateSessionID(path string) (string, error) {
	if path == "" {
		var err error
		path, err = defaultSessionPath()
		if err != nil {
			return "", err
		}
	}

	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("client: ensure session dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("client: persist session id: %w", err)
	}
	return id, nil
}
