package engine

import (
	"errors"
	"io"
	"log/slog"
)

var errStore = errors.New("store failed")

// memOutput keeps every frame in memory.
type memOutput[T Number] struct {
	n      int
	fps    float64
	frames map[int]*Array[T]
	last   int
	failAt int
}

func newMemOutput[T Number](n int) *memOutput[T] {
	return &memOutput[T]{n: n, frames: make(map[int]*Array[T])}
}

func (m *memOutput[T]) Len() int     { return m.n }
func (m *memOutput[T]) FPS() float64 { return m.fps }

func (m *memOutput[T]) Store(t int, f *Array[T]) error {
	if m.failAt != 0 && t == m.failAt {
		return errStore
	}
	m.frames[t] = f
	m.last = max(m.last, t)
	return nil
}

func (m *memOutput[T]) Last() (int, *Array[T], bool) {
	f, ok := m.frames[m.last]
	return m.last, f, ok
}

func quiet() RunOption {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// lifeRule is a life-like rule over a Moore neighborhood.
type lifeRule[T Number] struct {
	birth, survive [9]bool
}

func newLife[T Number](birth, survive []int) lifeRule[T] {
	var l lifeRule[T]
	for _, n := range birth {
		l.birth[n] = true
	}
	for _, n := range survive {
		l.survive[n] = true
	}
	return l
}

func conway[T Number]() lifeRule[T] { return newLife[T]([]int{3}, []int{2, 3}) }

func (lifeRule[T]) Name() string               { return "life" }
func (lifeRule[T]) Neighborhood() Neighborhood { return Moore() }
func (lifeRule[T]) Radius() int                { return 1 }

func (l lifeRule[T]) ApplyNeighborhood(_ *Context, w *Window[T], state T, _ Index) T {
	n := int(w.Sum())
	if state != 0 {
		if l.survive[n] {
			return 1
		}
		return 0
	}
	if l.birth[n] {
		return 1
	}
	return 0
}

// sumRule replaces a cell by the sum of its neighborhood.
func sumRule[T Number](h Neighborhood) NeighborhoodFunc[T] {
	return NeighborhoodFunc[T]{
		Hood: h,
		Apply: func(_ *Context, w *Window[T], _ T, _ Index) T {
			return w.Sum()
		},
	}
}

// noiseRule draws a fresh random value per cell.
type noiseRule struct{}

func (noiseRule) ApplyCell(ctx *Context, _ float64, _ Index) float64 { return ctx.Rand.Float64() }
func (noiseRule) Volatile() bool                                     { return true }

// pulseRule adds one to every cell at clock 3 only, through its per-step
// precalc value.
type pulseRule struct{}

func (pulseRule) Precalc(ctx *Context) any { return ctx.T == 3 }

func (pulseRule) ApplyCell(ctx *Context, v float64, _ Index) float64 {
	if ctx.Precalc().(bool) {
		return v + 1
	}
	return v
}

func mustRuleset[T Number](t interface{ Fatalf(string, ...any) }, rules []Rule[T], opts ...RulesetOption) *Ruleset[T] {
	rs, err := NewRuleset(rules, opts...)
	if err != nil {
		t.Fatalf("NewRuleset: %v", err)
	}
	return rs
}

func glider(shape ...int) *Array[uint8] {
	a := NewArray[uint8](shape...)
	for _, c := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}} {
		a.Set(1, c[0]+3, c[1]+3)
	}
	return a
}

// pattern fills a with a deterministic, irregular pattern.
func pattern[T Number](a *Array[T]) *Array[T] {
	cells := a.Cells()
	for i := range cells {
		if (i*7+i/3)%5 < 2 {
			cells[i] = 1
		}
	}
	return a
}
