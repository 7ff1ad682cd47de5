package core

import (
	"context"

	"golang.org/x/time/rate"
)

// FixedStep paces frames at a steady frames-per-second rate.
type FixedStep struct {
	limiter *rate.Limiter
}

// NewFixedStep constructs a FixedStep controller targeting the given FPS.
func NewFixedStep(fps float64) *FixedStep {
	if fps <= 0 {
		fps = 60
	}
	return &FixedStep{limiter: rate.NewLimiter(rate.Limit(fps), 1)}
}

// SetFPS changes the frame rate. It is safe to call while another goroutine waits.
func (f *FixedStep) SetFPS(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	f.limiter.SetLimit(rate.Limit(fps))
}

// FPS returns the current frame rate.
func (f *FixedStep) FPS() float64 { return float64(f.limiter.Limit()) }

// Wait blocks until the next frame is due or ctx is done.
func (f *FixedStep) Wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

// ShouldStep reports whether a frame is due without blocking.
func (f *FixedStep) ShouldStep() bool {
	return f.limiter.Allow()
}
