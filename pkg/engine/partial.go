package engine

// Partial gives a partial rule read access to the source and write access to
// the destination. Coordinates are resolved through the overflow policy; a
// coordinate that does not resolve is neither read nor written.
type Partial[T Number] struct {
	grid   *Grid[T]
	radius int
	center Index
	coord  []int
}

func newPartial[T Number](g *Grid[T], radius int) *Partial[T] {
	return &Partial[T]{grid: g, radius: radius, coord: make([]int, len(g.shape))}
}

// Shape returns the logical grid dimensions. The slice must not be modified.
func (p *Partial[T]) Shape() []int { return p.grid.shape }

// InBounds reports whether idx resolves to a grid cell.
func (p *Partial[T]) InBounds(idx ...int) bool {
	return resolveIndex(p.grid.overflow, idx, p.grid.shape, p.coord)
}

// Source returns the source value at idx and whether idx resolved.
func (p *Partial[T]) Source(idx ...int) (T, bool) {
	off, ok := p.resolve(idx)
	if !ok {
		var zero T
		return zero, false
	}
	return p.grid.source[off], true
}

// Dest returns the destination value at idx and whether idx resolved.
func (p *Partial[T]) Dest(idx ...int) (T, bool) {
	off, ok := p.resolve(idx)
	if !ok {
		var zero T
		return zero, false
	}
	return p.grid.dest[off], true
}

// Set writes v to the destination at idx. It returns false when idx does not
// resolve or lies outside the footprint of a partial neighborhood rule.
func (p *Partial[T]) Set(v T, idx ...int) bool {
	if !p.inFootprint(idx) {
		return false
	}
	off, ok := p.resolve(idx)
	if !ok {
		return false
	}
	p.grid.dest[off] = v
	return true
}

// Add adds v to the destination at idx, with the same checks as Set.
func (p *Partial[T]) Add(v T, idx ...int) bool {
	if !p.inFootprint(idx) {
		return false
	}
	off, ok := p.resolve(idx)
	if !ok {
		return false
	}
	p.grid.dest[off] += v
	return true
}

func (p *Partial[T]) inFootprint(idx []int) bool {
	if p.radius < 0 {
		return true
	}
	for d, c := range idx {
		delta := c - p.center[d]
		if delta > p.radius || -delta > p.radius {
			return false
		}
	}
	return true
}

func (p *Partial[T]) resolve(idx []int) (int, bool) {
	if !resolveIndex(p.grid.overflow, idx, p.grid.shape, p.coord) {
		return 0, false
	}
	return p.grid.Offset(p.coord), true
}
