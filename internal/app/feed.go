package app

import (
	"errors"
	"math"
	"sync"

	"dyngrid/pkg/engine"
)

// ErrClosed is returned by Store once the viewer has gone away.
var ErrClosed = errors.New("viewer closed")

// Frame is one published frame and its clock value.
type Frame struct {
	T     int
	Cells *engine.Array[float64]
}

// Feed is an engine output that hands frames to a render loop one at a time.
// Store blocks until the frame is taken, so a paused viewer pauses the run.
type Feed struct {
	n      int
	frames chan Frame
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	last Frame
}

// NewFeed returns a feed declaring n frames. Zero or less runs until closed.
func NewFeed(n int) *Feed {
	if n <= 0 {
		n = math.MaxInt
	}
	return &Feed{n: n, frames: make(chan Frame), done: make(chan struct{})}
}

func (f *Feed) Len() int { return f.n }

// FPS is zero: the render loop paces the run by taking frames.
func (f *Feed) FPS() float64 { return 0 }

func (f *Feed) Store(t int, frame *engine.Array[float64]) error {
	fr := Frame{T: t, Cells: frame}
	f.mu.Lock()
	f.last = fr
	f.mu.Unlock()
	select {
	case f.frames <- fr:
		return nil
	case <-f.done:
		return ErrClosed
	}
}

func (f *Feed) Last() (int, *engine.Array[float64], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last.T, f.last.Cells, f.last.Cells != nil
}

// Next takes the pending frame without blocking.
func (f *Feed) Next() (Frame, bool) {
	select {
	case fr := <-f.frames:
		return fr, true
	default:
		return Frame{}, false
	}
}

// Close releases a blocked Store. Safe to call more than once.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
}
