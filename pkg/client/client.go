package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	// ErrPollTimeout means the job was still running when the polling
	// budget ran out. The job itself may still complete server-side.
	ErrPollTimeout = errors.New("client: polling budget exhausted")
	// ErrGenerationFailed means the server reported a terminal failure.
	ErrGenerationFailed = errors.New("client: generation failed")
)

// Generation mirrors the server's job representation.
type Generation struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	Prompt           string    `json:"prompt"`
	Mode             string    `json:"mode"`
	Status           string    `json:"status"`
	OutputImages     []string  `json:"outputImages"`
	Model            string    `json:"model"`
	ProcessingTimeMs int64     `json:"processingTime"`
	CreatedAt        time.Time `json:"createdAt"`
}

// GalleryItem mirrors the server's gallery representation.
type GalleryItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Likes       int    `json:"likes"`
	Featured    bool   `json:"featured"`
}

// UploadResult describes a stored reference image.
type UploadResult struct {
	ID           string `json:"id"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	SizeBytes    int64  `json:"size"`
	URL          string `json:"url"`
}

// Client talks to the generation API. Polling knobs are exported so tests
// can shrink the budget.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	SessionID  string

	// InitialDelay is slept before the first status check, PollInterval
	// between checks. MaxAttempts bounds status checks and transport
	// errors together.
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// New builds a client with the production polling budget: 1s initial
// delay, 1s interval, 30 attempts.
func New(baseURL, sessionID string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		SessionID:    sessionID,
		InitialDelay: time.Second,
		PollInterval: time.Second,
		MaxAttempts:  30,
	}
}

// Generate submits a prompt and returns the accepted job reference. The
// render continues server-side; use WaitForResult to collect the output.
func (c *Client) Generate(ctx context.Context, prompt, mode, inputImage string) (*Generation, error) {
	payload := map[string]string{
		"prompt":     prompt,
		"mode":       mode,
		"sessionId":  c.SessionID,
		"inputImage": inputImage,
	}
	var resp struct {
		GenerationID string `json:"generationId"`
		SessionID    string `json:"sessionId"`
		Status       string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", payload, &resp); err != nil {
		return nil, err
	}
	return &Generation{ID: resp.GenerationID, SessionID: resp.SessionID, Status: resp.Status}, nil
}

// Get fetches the current state of a job.
func (c *Client) Get(ctx context.Context, id string) (*Generation, error) {
	var resp struct {
		Generation Generation `json:"generation"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/generate/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Generation, nil
}

// WaitForResult polls a job until it reaches a terminal state or the
// attempt budget runs out. Transport errors consume attempts from the same
// budget.
func (c *Client) WaitForResult(ctx context.Context, id string) ([]string, error) {
	if err := sleepCtx(ctx, c.InitialDelay); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.PollInterval); err != nil {
				return nil, err
			}
		}
		job, err := c.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		switch job.Status {
		case "completed":
			return job.OutputImages, nil
		case "failed":
			return nil, ErrGenerationFailed
		}
	}
	return nil, ErrPollTimeout
}

// Upload stores a reference image for image-to-image jobs.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, fileName))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("client: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("client: build form: %w", err)
	}
	if err := mw.WriteField("sessionId", c.SessionID); err != nil {
		return nil, fmt.Errorf("client: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		File UploadResult `json:"file"`
	}
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp.File, nil
}

// History lists this session's jobs most recent first.
func (c *Client) History(ctx context.Context, limit, skip int) ([]Generation, int, error) {
	path := fmt.Sprintf("/api/generate/history/%s?limit=%d&skip=%d", c.SessionID, limit, skip)
	var resp struct {
		Generations []Generation `json:"generations"`
		Pagination  struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Generations, resp.Pagination.Total, nil
}

// Promote publishes a completed job to the public gallery.
func (c *Client) Promote(ctx context.Context, id, title, description string) (*GalleryItem, error) {
	payload := map[string]string{"title": title, "description": description}
	var resp struct {
		GalleryItem GalleryItem `json:"galleryItem"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate/"+id+"/gallery", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.GalleryItem, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("client: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("client: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
