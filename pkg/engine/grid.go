package engine

import (
	"fmt"
	"slices"
)

// Grid is the double-buffered state of one replicate. Both buffers share a
// shape padded by the ruleset radius on every side, so neighborhood reads
// never leave the slice.
type Grid[T Number] struct {
	shape    []int
	padded   []int
	strides  []int
	pad      int
	source   []T
	dest     []T
	overflow Overflow
}

// NewGrid allocates a grid with logical shape, padded by pad cells.
func NewGrid[T Number](shape []int, pad int, overflow Overflow) *Grid[T] {
	s := normalizeShape(shape)
	pad = max(pad, 0)
	padded := make([]int, len(s))
	for d, n := range s {
		padded[d] = n + 2*pad
	}
	if overflow == nil {
		overflow = RemoveOverflow{}
	}
	total := volume(padded)
	return &Grid[T]{
		shape:    s,
		padded:   padded,
		strides:  stridesFor(padded),
		pad:      pad,
		source:   make([]T, total),
		dest:     make([]T, total),
		overflow: overflow,
	}
}

// Shape returns a copy of the logical dimensions.
func (g *Grid[T]) Shape() []int { return slices.Clone(g.shape) }

// Padding returns the number of padding cells on each side.
func (g *Grid[T]) Padding() int { return g.pad }

// Source exposes the padded buffer rules read from.
func (g *Grid[T]) Source() []T { return g.source }

// Dest exposes the padded buffer rules write to.
func (g *Grid[T]) Dest() []T { return g.dest }

// Swap exchanges the roles of source and destination without copying.
func (g *Grid[T]) Swap() { g.source, g.dest = g.dest, g.source }

// Offset maps a logical index to its position in the padded buffers.
func (g *Grid[T]) Offset(idx Index) int {
	off := 0
	for d, i := range idx {
		off += (i + g.pad) * g.strides[d]
	}
	return off
}

// Index maps a padded buffer position back to a logical index, appending
// to dst. Padding positions map to negative or out-of-range coordinates.
func (g *Grid[T]) Index(off int, dst Index) Index {
	dst = dst[:0]
	for _, s := range g.strides {
		dst = append(dst, off/s-g.pad)
		off %= s
	}
	return dst
}

// Get returns the source value at a logical index.
func (g *Grid[T]) Get(idx ...int) T { return g.source[g.Offset(idx)] }

// Load copies a into the source buffer, resets the padding and mirrors the
// result into the destination.
func (g *Grid[T]) Load(a *Array[T]) error {
	if !slices.Equal(a.shape, g.shape) {
		return fmt.Errorf("%w: array shape %v, grid shape %v", ErrStateMismatch, a.shape, g.shape)
	}
	clear(g.source)
	g.eachRow(a, func(phys, logical, n int) {
		copy(g.source[phys:phys+n], a.cells[logical:logical+n])
	})
	g.syncPadding(g.source)
	copy(g.dest, g.source)
	return nil
}

// Frame returns a snapshot of the logical source cells.
func (g *Grid[T]) Frame() *Array[T] {
	a := NewArray[T](g.shape...)
	g.frameInto(a)
	return a
}

func (g *Grid[T]) frameInto(a *Array[T]) {
	g.eachRow(a, func(phys, logical, n int) {
		copy(a.cells[logical:logical+n], g.source[phys:phys+n])
	})
}

// eachRow walks the contiguous last-dimension rows of the logical grid
// alongside the matching rows of a.
func (g *Grid[T]) eachRow(a *Array[T], fn func(phys, logical, n int)) {
	rank := len(g.shape)
	lo := make([]int, rank)
	hi := slices.Clone(g.shape)
	hi[rank-1] = 1
	n := g.shape[rank-1]
	eachInBox(lo, hi, func(c []int) {
		fn(g.Offset(c), a.offset(c), n)
	})
}

// copyBlock copies the logical box [lo, hi) from source to destination.
func (g *Grid[T]) copyBlock(lo, hi []int) {
	rank := len(lo)
	rowHi := slices.Clone(hi)
	rowHi[rank-1] = lo[rank-1] + 1
	n := hi[rank-1] - lo[rank-1]
	eachInBox(lo, rowHi, func(c []int) {
		off := g.Offset(c)
		copy(g.dest[off:off+n], g.source[off:off+n])
	})
}

func (g *Grid[T]) physical(c []int) int {
	off := 0
	for d, v := range c {
		off += v * g.strides[d]
	}
	return off
}

// syncPadding refreshes the padding of buf from the opposite edges when the
// overflow policy wraps. Dimensions are handled in order over the full padded
// extent of the others, which also fills the corners.
func (g *Grid[T]) syncPadding(buf []T) {
	if g.pad == 0 || !g.overflow.wraps() {
		return
	}
	rank := len(g.shape)
	lo := make([]int, rank)
	hi := make([]int, rank)
	for d := 0; d < rank; d++ {
		n := g.shape[d]
		for e := 0; e < rank; e++ {
			lo[e], hi[e] = 0, g.padded[e]
		}
		for _, side := range [2][2]int{{0, g.pad}, {g.pad + n, g.padded[d]}} {
			lo[d], hi[d] = side[0], side[1]
			eachInBox(lo, hi, func(c []int) {
				dst := g.physical(c)
				p := c[d]
				c[d] = ((p-g.pad)%n+n)%n + g.pad
				buf[dst] = buf[g.physical(c)]
				c[d] = p
			})
		}
	}
}
