package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationMode enumerates supported generation workflows.
type GenerationMode string

const (
	ModeTextToImage  GenerationMode = "text-to-image"
	ModeImageToImage GenerationMode = "image-to-image"
)

// Valid reports whether the mode is one of the supported workflows.
func (m GenerationMode) Valid() bool {
	return m == ModeTextToImage || m == ModeImageToImage
}

// GenerationStatus enumerates job lifecycle states.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s GenerationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	PromptMinLen = 3
	PromptMaxLen = 500
)

// GenerationJob tracks a single request to produce image artifacts from a
// prompt. Output images are append-only and jobs are never deleted; the
// per-session history is the full record.
type GenerationJob struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"sessionId"`
	Prompt           string           `json:"prompt"`
	Mode             GenerationMode   `json:"mode"`
	InputImage       string           `json:"inputImage,omitempty"`
	OutputImages     []string         `json:"outputImages"`
	Status           GenerationStatus `json:"status"`
	Model            string           `json:"model,omitempty"`
	ProcessingTimeMs int64            `json:"processingTime,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// ValidateGenerationInput checks prompt, mode and session before any state
// mutation. Sessions are minted by clients; a job without one would be
// unreachable through the history endpoint, so it is rejected up front.
func ValidateGenerationInput(prompt string, mode GenerationMode, sessionID string) error {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) < PromptMinLen {
		return fmt.Errorf("%w: prompt must be at least %d characters", ErrValidation, PromptMinLen)
	}
	if len(prompt) > PromptMaxLen {
		return fmt.Errorf("%w: prompt must be less than %d characters", ErrValidation, PromptMaxLen)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: invalid generation mode %q", ErrValidation, mode)
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrValidation)
	}
	return nil
}

// NewGenerationJob builds a job in the processing state, ready to persist.
func NewGenerationJob(prompt string, mode GenerationMode, sessionID, inputImage string) (*GenerationJob, error) {
	if err := ValidateGenerationInput(prompt, mode, sessionID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &GenerationJob{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Prompt:       prompt,
		Mode:         mode,
		InputImage:   inputImage,
		OutputImages: []string{},
		Status:       StatusProcessing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
