package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"dyngrid/pkg/core"
)

// Reducer combines the frames of all replicates into dst. It must not keep
// references to frames.
type Reducer[T Number] func(dst []T, frames [][]T)

// Mean averages replicate frames cell by cell. The mean is computed in
// float64 and converted back to T, so integer grids truncate.
func Mean[T Number](dst []T, frames [][]T) {
	if len(frames) == 0 {
		return
	}
	n := float64(len(frames))
	for i := range dst {
		var sum float64
		for _, f := range frames {
			sum += float64(f[i])
		}
		dst[i] = T(sum / n)
	}
}

// replicate owns one grid, its activity bitmap and its random stream.
type replicate[T Number] struct {
	grid    *Grid[T]
	status  *Status
	ctx     Context
	win     Window[T]
	partial *Partial[T]
	pre     [][]any
	lo, hi  []int

	evaluated int
	skipped   int
}

func newReplicate[T Number](rs *Ruleset[T], shape []int) *replicate[T] {
	g := NewGrid[T](shape, rs.radius, rs.overflow)
	rank := len(g.shape)
	return &replicate[T]{
		grid:   g,
		status: newStatus(g.shape, rs.blockSize, rs.overflow),
		lo:     make([]int, rank),
		hi:     make([]int, rank),
	}
}

// prepare binds the replicate to a sequencer and loads the initial array.
func (r *replicate[T]) prepare(seq *sequencer[T], initial *Array[T], n int, seed uint64, t int) error {
	if err := r.grid.Load(initial); err != nil {
		return err
	}
	r.status.reset()
	r.ctx = Context{
		T:         t,
		Replicate: n,
		Rand:      core.NewStream(seed, n, t).Source(),
		shape:     r.grid.shape,
	}
	r.win = Window[T]{
		strides:  r.grid.strides,
		shape:    r.grid.shape,
		overflow: r.grid.overflow,
	}
	r.partial = newPartial(r.grid, -1)
	r.pre = make([][]any, len(seq.passes))
	for i, p := range seq.passes {
		r.pre[i] = make([]any, len(p.leaves))
	}
	return nil
}

// scheduler advances every replicate of a run one step at a time and reduces
// them into a single frame.
type scheduler[T Number] struct {
	seq     *sequencer[T]
	reps    []*replicate[T]
	reduce  Reducer[T]
	scratch []*Array[T]
}

// step runs one timestep on all replicates. With more than one replicate each
// runs on its own goroutine and step returns only after all have finished.
func (s *scheduler[T]) step(ctx context.Context, t int) error {
	if len(s.reps) == 1 {
		s.seq.step(s.reps[0], t)
		return nil
	}
	g, _ := errgroup.WithContext(ctx)
	for _, r := range s.reps {
		g.Go(func() error {
			s.seq.step(r, t)
			return nil
		})
	}
	return g.Wait()
}

// frame returns a fresh snapshot of the reduced state.
func (s *scheduler[T]) frame() *Array[T] {
	if len(s.reps) == 1 {
		return s.reps[0].grid.Frame()
	}
	frames := make([][]T, len(s.reps))
	for i, r := range s.reps {
		r.grid.frameInto(s.scratch[i])
		frames[i] = s.scratch[i].cells
	}
	out := NewArray[T](s.reps[0].grid.shape...)
	s.reduce(out.cells, frames)
	return out
}

func (s *scheduler[T]) blocks() (evaluated, skipped int) {
	for _, r := range s.reps {
		evaluated += r.evaluated
		skipped += r.skipped
	}
	return evaluated, skipped
}
