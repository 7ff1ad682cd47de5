// Package output holds frame sinks for engine runs: an in-memory array, a
// terminal printer and a badger-backed store.
package output

import (
	"errors"

	"dyngrid/pkg/engine"
)

// ErrNoFrame is returned when a frame was never stored.
var ErrNoFrame = errors.New("output: no frame stored")

// ArrayOutput keeps every frame in memory, indexed by clock value.
type ArrayOutput[T engine.Number] struct {
	n      int
	fps    float64
	frames []*engine.Array[T]
	last   int
}

// NewArrayOutput preallocates room for n frames.
func NewArrayOutput[T engine.Number](n int) *ArrayOutput[T] {
	n = max(n, 1)
	return &ArrayOutput[T]{n: n, frames: make([]*engine.Array[T], n)}
}

// WithFPS sets the pacing hint handed to the engine.
func (o *ArrayOutput[T]) WithFPS(fps float64) *ArrayOutput[T] {
	o.fps = fps
	return o
}

func (o *ArrayOutput[T]) Len() int     { return o.n }
func (o *ArrayOutput[T]) FPS() float64 { return o.fps }

// Store keeps frame at position t-1, growing the buffer when a resumed run
// goes past the preallocated length.
func (o *ArrayOutput[T]) Store(t int, frame *engine.Array[T]) error {
	if t < 1 {
		return errors.New("output: clock values start at 1")
	}
	if t > len(o.frames) {
		grown := make([]*engine.Array[T], max(t, 2*len(o.frames)))
		copy(grown, o.frames)
		o.frames = grown
	}
	o.frames[t-1] = frame
	o.last = max(o.last, t)
	return nil
}

func (o *ArrayOutput[T]) Last() (int, *engine.Array[T], bool) {
	if o.last == 0 {
		return 0, nil, false
	}
	return o.last, o.frames[o.last-1], true
}

// Frame returns the frame stored for clock value t.
func (o *ArrayOutput[T]) Frame(t int) (*engine.Array[T], error) {
	if t < 1 || t > len(o.frames) || o.frames[t-1] == nil {
		return nil, ErrNoFrame
	}
	return o.frames[t-1], nil
}

// Frames returns the stored frames in clock order, up to the last one.
func (o *ArrayOutput[T]) Frames() []*engine.Array[T] {
	return o.frames[:o.last]
}
