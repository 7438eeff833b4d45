package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ServeFile streams a stored file with long-lived caching headers.
func (a *App) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, contentType, err := a.Uploads.Get(r.Context(), name)
	if err != nil {
		a.domainError(w, err)
		return
	}

	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(data))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteFile removes a stored file. Deleting an absent file still succeeds.
func (a *App) DeleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.Uploads.Delete(r.Context(), name); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"message": "file deleted"})
}

// StorageStats reports upload count and combined size.
func (a *App) StorageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Uploads.Stats(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"storage": stats})
}

type cleanupRequest struct {
	Days int `json:"days"`
}

// CleanupFiles sweeps uploads older than the requested number of days.
func (a *App) CleanupFiles(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if r.Body != nil {
		// An empty body means the default retention.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Days <= 0 {
		req.Days = a.Config.UploadTTLDays
	}

	removed, err := a.Uploads.CleanupOlderThan(r.Context(), req.Days)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"deletedCount": removed,
		"days":         req.Days,
	})
}
