package renderer

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const mockModel = "nano-banana-v1-mock"

// Stock image pools keyed by prompt category.
var mockImagePools = map[string][]string{
	"mountain": {
		"https://images.unsplash.com/photo-1494806812796-244fe51b774d?w=800&q=80",
		"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800&q=80",
		"https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=800&q=80",
	},
	"garden": {
		"https://images.unsplash.com/photo-1563714193017-5a5fb60bc02b?w=800&q=80",
		"https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=800&q=80",
		"https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=800&q=80",
	},
	"aurora": {
		"https://images.unsplash.com/photo-1531366936337-7c912a4589a7?w=800&q=80",
		"https://images.unsplash.com/photo-1483347756197-71ef80e95f73?w=800&q=80",
		"https://images.unsplash.com/photo-1446776877081-d282a0f896e2?w=800&q=80",
	},
	"beach": {
		"https://images.unsplash.com/photo-1665613252734-7ed473dce464?w=800&q=80",
		"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=800&q=80",
		"https://images.unsplash.com/photo-1544551763-46a013bb70d5?w=800&q=80",
	},
	"city": {
		"https://images.unsplash.com/photo-1449824913935-59a10b8d2000?w=800&q=80",
		"https://images.unsplash.com/photo-1514565131-fce0801e5785?w=800&q=80",
		"https://images.unsplash.com/photo-1480714378408-67cf0d13bc1f?w=800&q=80",
	},
	"default": {
		"https://images.unsplash.com/photo-1518709268805-4e9042af2ac1?w=800&q=80",
		"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800&q=80",
		"https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=800&q=80",
	},
}

// MockOptions configures the synthetic backend.
type MockOptions struct {
	// MinLatency and MaxLatency bound the simulated render time. Defaults
	// to 800ms-2s.
	MinLatency time.Duration
	MaxLatency time.Duration
	// Rand overrides the pseudo-random source for deterministic tests.
	Rand *rand.Rand
}

// Mock is a synthetic rendering backend that picks a stock image matching
// the prompt category after a simulated processing delay.
type Mock struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock constructs the synthetic backend.
func NewMock(opts MockOptions) *Mock {
	if opts.MinLatency <= 0 {
		opts.MinLatency = 800 * time.Millisecond
	}
	if opts.MaxLatency < opts.MinLatency {
		opts.MaxLatency = 2 * time.Second
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Mock{minLatency: opts.MinLatency, maxLatency: opts.MaxLatency, rng: rng}
}

// Render simulates a backend call: it sleeps for a bounded random duration,
// then returns one stock image from the pool matching the prompt. The call
// honors ctx cancellation.
func (m *Mock) Render(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	delay := m.minLatency + m.randomSpread()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(delay):
	}

	pool := mockImagePools[CategorizePrompt(req.Prompt)]
	m.mu.Lock()
	image := pool[m.rng.Intn(len(pool))]
	m.mu.Unlock()

	return Result{
		Images:     []string{image},
		DurationMs: time.Since(start).Milliseconds(),
		Model:      mockModel,
	}, nil
}

func (m *Mock) randomSpread() time.Duration {
	spread := m.maxLatency - m.minLatency
	if spread <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.rng.Int63n(int64(spread)))
}

// CategorizePrompt buckets a prompt into one of the stock pools.
func CategorizePrompt(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case containsAny(p, "mountain", "peak", "snow"):
		return "mountain"
	case containsAny(p, "garden", "flower", "plant"):
		return "garden"
	case containsAny(p, "aurora", "northern light", "borealis"):
		return "aurora"
	case containsAny(p, "beach", "ocean", "sea"):
		return "beach"
	case containsAny(p, "city", "urban", "building"):
		return "city"
	default:
		return "default"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
