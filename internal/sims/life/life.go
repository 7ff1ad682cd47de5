package life

import (
	"dyngrid/internal/core"
	prng "dyngrid/pkg/core"
	"dyngrid/pkg/engine"
)

// Life is a life-like rule: an empty cell is born when its count of occupied
// neighbors is in the birth set, an occupied cell survives when the count is
// in the survival set.
type Life[T engine.Number] struct {
	hood    engine.Neighborhood
	birth   uint64
	survive uint64
}

// New returns a Life rule over the Moore neighborhood. Counts above 63 are
// never matched.
func New[T engine.Number](birth, survive []int) Life[T] {
	return Life[T]{hood: engine.Moore(), birth: bits(birth), survive: bits(survive)}
}

// Conway returns B3/S23.
func Conway[T engine.Number]() Life[T] { return New[T]([]int{3}, []int{2, 3}) }

// WithNeighborhood returns a copy of l counting over h instead.
func (l Life[T]) WithNeighborhood(h engine.Neighborhood) Life[T] {
	l.hood = h
	return l
}

func (Life[T]) Name() string { return "life" }

func (l Life[T]) Neighborhood() engine.Neighborhood { return l.hood }

func (l Life[T]) Radius() int { return engine.Extent(l.hood) }

func (l Life[T]) ApplyNeighborhood(_ *engine.Context, w *engine.Window[T], state T, _ engine.Index) T {
	n := w.Count(occupied[T])
	set := l.birth
	if state != 0 {
		set = l.survive
	}
	if n < 64 && set&(1<<n) != 0 {
		return 1
	}
	return 0
}

func occupied[T engine.Number](v T) bool { return v != 0 }

func bits(counts []int) uint64 {
	var b uint64
	for _, n := range counts {
		if n >= 0 && n < 64 {
			b |= 1 << n
		}
	}
	return b
}

// Model builds the life model from a config.
func Model(c Config) (*core.Model, error) {
	var opts []engine.RulesetOption
	if c.Wrap {
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	}
	if c.Sparse {
		opts = append(opts, engine.WithSparse())
	}
	rule := engine.Neighbors[float64](New[float64](c.Birth, c.Survive))
	rs, err := engine.NewRuleset([]engine.Rule[float64]{rule}, opts...)
	if err != nil {
		return nil, err
	}
	shape := []int{c.Height, c.Width}
	return &core.Model{
		Name:   "life",
		Shape:  shape,
		Rules:  rs,
		Init:   func(seed uint64) *engine.Array[float64] { return Seed(shape, c.Density, seed) },
		Max:    1,
		Params: c.Parameters(),
	}, nil
}

// Seed fills an array of the given shape with occupied cells at the given
// density.
func Seed(shape []int, density float64, seed uint64) *engine.Array[float64] {
	a := engine.NewArray[float64](shape...)
	rng := prng.NewRNG(int64(seed))
	cells := a.Cells()
	for i := range cells {
		if rng.Chance(density) {
			cells[i] = 1
		}
	}
	return a
}

func init() {
	core.Register("life", func(cfg map[string]string) (*core.Model, error) {
		return Model(FromMap(cfg))
	})
}
