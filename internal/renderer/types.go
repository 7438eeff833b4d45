package renderer

import (
	"context"

	"nanogen/internal/domain"
)

// Request describes a normalized render request passed to any backend.
type Request struct {
	JobID      string
	Prompt     string
	Mode       domain.GenerationMode
	InputImage string
}

// Result carries the artifacts produced by a successful render together
// with the backend-reported duration. A render either yields a Result or an
// error; the dispatcher's finalize step is a total match over the two
// cases.
type Result struct {
	Images     []string
	DurationMs int64
	Model      string
}

// Renderer is the contract implemented by all rendering backends. Calls may
// be slow and may fail; the caller owns timeout via ctx.
type Renderer interface {
	Render(ctx context.Context, req Request) (Result, error)
}
