package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nanogen/internal/domain"
)

type generateRequest struct {
	Prompt     string `json:"prompt"`
	Mode       string `json:"mode"`
	SessionID  string `json:"sessionId"`
	InputImage string `json:"inputImage"`
}

// Generate accepts a job, persists it and returns immediately; the render
// happens in the background and is observed by polling.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload", "")
		return
	}
	mode := domain.GenerationMode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeTextToImage
	}

	job, err := a.Generations.Create(r.Context(), req.Prompt, mode, req.SessionID, req.InputImage)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"generationId":  job.ID,
		"sessionId":     job.SessionID,
		"status":        string(job.Status),
		"message":       "Generation started! Check back for your image.",
		"estimatedTime": "0.8-2 seconds",
	})
}

// GetGeneration returns the current state of a job.
func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	job, err := a.Generations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"generation": job})
}

// GenerationHistory lists a session's jobs most recent first.
func (a *App) GenerationHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	limit := queryInt(r, "limit", 20)
	skip := queryInt(r, "skip", 0)

	jobs, total, err := a.Generations.History(r.Context(), sessionID, limit, skip)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"generations": jobs,
		"pagination": map[string]any{
			"total":   total,
			"limit":   limit,
			"skip":    skip,
			"hasMore": skip+limit < total,
		},
	})
}

type promoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PromoteToGallery publishes a completed job's artifact as a gallery item.
func (a *App) PromoteToGallery(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload", "")
		return
	}
	item, err := a.Gallery.Promote(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"galleryItem": item})
}

// UploadImage accepts a multipart reference image for image-to-image jobs.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Slack above the limit so an oversized file reaches the validator and
	// gets the proper rejection message.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(domain.MaxUploadBytes + 1<<20); err != nil {
		a.error(w, http.StatusBadRequest, "file too large or malformed form", "")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "image file is required", "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "could not read uploaded file", "")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	saved, err := a.Uploads.Save(r.Context(), data, header.Filename, contentType, r.FormValue("sessionId"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"file": saved})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
