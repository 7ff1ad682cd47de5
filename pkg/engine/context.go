package engine

import "math/rand/v2"

// Context carries per-replicate, per-step values into rule calls. Each
// replicate owns its Context, so rules may use Rand without locking.
type Context struct {
	// T is the clock value of the frame being read.
	T int
	// Replicate is the zero-based replicate number.
	Replicate int
	// Rand is the replicate's private random stream.
	Rand *rand.Rand

	shape   []int
	precalc any
}

// Shape returns the logical grid dimensions. The slice must not be modified.
func (c *Context) Shape() []int { return c.shape }

// Precalc returns the value the current rule produced from its Precalc hook
// for this step, or nil.
func (c *Context) Precalc() any { return c.precalc }
