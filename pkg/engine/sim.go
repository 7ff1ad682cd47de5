package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dyngrid/pkg/core"
)

// DefaultResumeFrames is the number of frames Resume adds when asked for
// zero or fewer.
const DefaultResumeFrames = 100

type runOptions struct {
	init          any
	state         any
	reducer       any
	stop          int
	fps           float64
	fpsSet        bool
	replicates    int
	replicatesSet bool
	seed          uint64
	logger        *slog.Logger
	runID         string
}

// RunOption configures Run and Resume.
type RunOption func(*runOptions)

// WithInit sets the initial array, overriding the ruleset default.
func WithInit[T Number](a *Array[T]) RunOption {
	return func(o *runOptions) { o.init = a }
}

// WithStopTime sets the last clock value of a run. Ignored by Resume.
func WithStopTime(t int) RunOption {
	return func(o *runOptions) { o.stop = t }
}

// WithFPS overrides the output's pacing hint. Zero disables pacing.
func WithFPS(fps float64) RunOption {
	return func(o *runOptions) { o.fps, o.fpsSet = fps, true }
}

// WithReplicates runs n independent replicates and reduces them into one
// frame per step.
func WithReplicates(n int) RunOption {
	return func(o *runOptions) { o.replicates, o.replicatesSet = max(n, 1), true }
}

// WithSeed seeds the replicate random streams.
func WithSeed(seed uint64) RunOption {
	return func(o *runOptions) { o.seed = seed }
}

// WithReducer replaces Mean as the replicate reducer.
func WithReducer[T Number](r Reducer[T]) RunOption {
	return func(o *runOptions) { o.reducer = r }
}

// WithState reuses the buffers of a previous run instead of allocating.
func WithState[T Number](s *State[T]) RunOption {
	return func(o *runOptions) { o.state = s }
}

// WithLogger sets the run logger. The default is slog.Default().
func WithLogger(l *slog.Logger) RunOption {
	return func(o *runOptions) { o.logger = l }
}

// WithRunID names the run in logs and spans. A random UUID is used otherwise.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// State is what a run leaves behind: the clock, the last reduced frame and
// the replicate buffers, which WithState can hand to a later run.
type State[T Number] struct {
	RunID      string
	Time       int
	Replicates int

	shape []int
	reps  []*replicate[T]
	last  *Array[T]
}

// Frame returns a copy of the last frame produced.
func (s *State[T]) Frame() *Array[T] {
	if s.last == nil {
		return nil
	}
	return s.last.Clone()
}

// Grid returns the grid of replicate i.
func (s *State[T]) Grid(i int) *Grid[T] { return s.reps[i].grid }

// Status returns the activity bitmap of replicate i.
func (s *State[T]) Status(i int) *Status { return s.reps[i].status }

func (s *State[T]) fits(rs *Ruleset[T], shape []int, n int) bool {
	if len(s.reps) != n || !slices.Equal(s.shape, shape) {
		return false
	}
	g := s.reps[0].grid
	return g.pad == rs.radius &&
		g.overflow.wraps() == rs.overflow.wraps() &&
		s.reps[0].status.blockSize == rs.blockSize
}

// Run simulates rs from its initial array until the stop time, storing
// every frame in out. The initial array is stored as frame 1. The stop time
// defaults to out.Len().
//
// A cancelled ctx ends the run before the next step; the state reached so
// far is returned together with ctx.Err().
func Run[T Number](ctx context.Context, out Output[T], rs *Ruleset[T], opts ...RunOption) (*State[T], error) {
	o := collect(opts)
	initial := rs.init
	if o.init != nil {
		a, ok := o.init.(*Array[T])
		if !ok {
			return nil, fmt.Errorf("%w: init is %T", ErrTypeMismatch, o.init)
		}
		initial = a
	}
	if initial == nil {
		return nil, ErrNoInit
	}
	stop := o.stop
	if stop <= 0 {
		stop = out.Len()
	}
	return simulate(ctx, out, rs, initial, 1, stop, true, o)
}

// Resume continues the run recorded in out from its last frame for another
// additional frames. Random streams are reseeded from the resume time, so a
// resumed run is reproducible but differs from an uninterrupted one.
func Resume[T Number](ctx context.Context, out Output[T], rs *Ruleset[T], additional int, opts ...RunOption) (*State[T], error) {
	o := collect(opts)
	if o.init != nil {
		return nil, ErrResumeWithInit
	}
	t, frame, ok := out.Last()
	if !ok || frame == nil {
		return nil, ErrNoPriorRun
	}
	if additional <= 0 {
		additional = DefaultResumeFrames
	}
	return simulate(ctx, out, rs, frame, t, t+additional, false, o)
}

func collect(opts []RunOption) runOptions {
	o := runOptions{replicates: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return o
}

func simulate[T Number](ctx context.Context, out Output[T], rs *Ruleset[T], initial *Array[T], start, stop int, storeInit bool, o runOptions) (st *State[T], err error) {
	if err := rs.checkRank(initial); err != nil {
		return nil, err
	}
	if err := rs.checkOverflow(); err != nil {
		return nil, err
	}
	reduce := Reducer[T](Mean[T])
	if o.reducer != nil {
		r, ok := o.reducer.(Reducer[T])
		if !ok {
			return nil, fmt.Errorf("%w: reducer is %T", ErrTypeMismatch, o.reducer)
		}
		reduce = r
	}

	shape := normalizeShape(initial.shape)
	n := o.replicates
	var prev *State[T]
	if o.state != nil {
		s, ok := o.state.(*State[T])
		if !ok {
			return nil, fmt.Errorf("%w: state is %T", ErrTypeMismatch, o.state)
		}
		if !o.replicatesSet {
			n = len(s.reps)
		}
		if !s.fits(rs, shape, n) {
			return nil, fmt.Errorf("%w: shape %v, %d replicates", ErrStateMismatch, shape, n)
		}
		prev = s
	}

	seq := newSequencer(rs, shape)
	sched := &scheduler[T]{seq: seq, reduce: reduce}
	if prev != nil {
		sched.reps = prev.reps
	} else {
		sched.reps = make([]*replicate[T], n)
		for i := range sched.reps {
			sched.reps[i] = newReplicate(rs, shape)
		}
	}
	for i, r := range sched.reps {
		if err := r.prepare(seq, initial, i, o.seed, start); err != nil {
			return nil, err
		}
	}
	if n > 1 {
		sched.scratch = make([]*Array[T], n)
		for i := range sched.scratch {
			sched.scratch[i] = NewArray[T](shape...)
		}
	}

	st = &State[T]{
		RunID:      o.runID,
		Time:       start,
		Replicates: n,
		shape:      shape,
		reps:       sched.reps,
		last:       initial.Clone(),
	}

	attrs := []attribute.KeyValue{
		attribute.Int("replicates", n),
		attribute.Int("rank", len(shape)),
		attribute.Bool("sparse", rs.sparse),
	}
	ctx, span := tracer.Start(ctx, "engine.Run", trace.WithAttributes(
		append(attrs,
			attribute.String("run_id", o.runID),
			attribute.Int("start", start),
			attribute.Int("stop", stop),
		)...,
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := o.logger.With("run_id", o.runID)
	log.Info("run started",
		"shape", shape,
		"replicates", n,
		"passes", len(seq.passes),
		"sparse", rs.sparse,
		"start", start,
		"stop", stop,
	)

	if storeInit {
		if err := out.Store(start, st.last); err != nil {
			return st, fmt.Errorf("store frame %d: %w", start, err)
		}
		recordFrame(ctx, attrs...)
	}

	fps := out.FPS()
	if o.fpsSet {
		fps = o.fps
	}
	var pace *core.FixedStep
	if fps > 0 {
		pace = core.NewFixedStep(fps)
	}

	began := time.Now()
	for st.Time < stop {
		if err := ctx.Err(); err != nil {
			log.Info("run cancelled", "t", st.Time)
			return st, err
		}
		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				return st, err
			}
		}
		stepStart := time.Now()
		if err := sched.step(ctx, st.Time); err != nil {
			return st, fmt.Errorf("step %d: %w", st.Time, err)
		}
		st.Time++
		frame := sched.frame()
		st.last = frame
		evaluated, skipped := sched.blocks()
		recordStep(ctx, time.Since(stepStart), evaluated, skipped, attrs...)
		log.Debug("step", "t", st.Time, "blocks_evaluated", evaluated, "blocks_skipped", skipped)

		if err := out.Store(st.Time, frame); err != nil {
			return st, fmt.Errorf("store frame %d: %w", st.Time, err)
		}
		recordFrame(ctx, attrs...)
	}
	log.Info("run finished", "t", st.Time, "elapsed", time.Since(began))
	return st, nil
}
