package engine

import (
	"fmt"
	"slices"
)

// Neighborhood describes which cells around a center cell influence it. The
// set of descriptors is closed: Radial, Custom and Layered.
type Neighborhood interface {
	extent() int
	rank() int
	layers(rank int) [][][]int
}

// Radial covers every cell within Chebyshev distance R of the center,
// excluding the center itself, in any number of dimensions.
type Radial struct {
	R int
}

func (h Radial) extent() int { return h.R }

func (h Radial) rank() int { return 0 }

func (h Radial) layers(rank int) [][][]int {
	return [][][]int{radialOffsets(h.R, rank)}
}

// Custom covers exactly the listed relative coordinates. The origin is only
// included when listed.
type Custom struct {
	Offsets [][]int
}

func (h Custom) extent() int { return chebyshev(h.Offsets) }

func (h Custom) rank() int { return offsetsRank(h.Offsets) }

func (h Custom) layers(int) [][][]int { return [][][]int{h.Offsets} }

// Layered holds several custom neighborhoods that are aggregated separately.
type Layered struct {
	Layers [][][]int
}

func (h Layered) extent() int {
	r := 0
	for _, l := range h.Layers {
		r = max(r, chebyshev(l))
	}
	return r
}

func (h Layered) rank() int {
	for _, l := range h.Layers {
		if r := offsetsRank(l); r != 0 {
			return r
		}
	}
	return 0
}

func (h Layered) layers(int) [][][]int { return h.Layers }

// Moore returns the radius-1 radial neighborhood.
func Moore() Radial { return Radial{R: 1} }

// VonNeumann returns the four orthogonal neighbors of a rank-2 grid.
func VonNeumann() Custom {
	return Custom{Offsets: [][]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}}
}

// HoodSize returns the side length of a window with radius r, always 2r+1.
func HoodSize(r int) int { return 2*r + 1 }

// Extent returns the largest Chebyshev distance a neighborhood reaches.
func Extent(h Neighborhood) int {
	if h == nil {
		return -1
	}
	return h.extent()
}

// Offsets returns the relative coordinates of h for a grid of the given rank,
// all layers concatenated.
func Offsets(h Neighborhood, rank int) [][]int {
	var out [][]int
	for _, l := range h.layers(rank) {
		for _, o := range l {
			out = append(out, slices.Clone(o))
		}
	}
	return out
}

func radialOffsets(r, rank int) [][]int {
	if r <= 0 || rank <= 0 {
		return nil
	}
	lo := make([]int, rank)
	hi := make([]int, rank)
	for d := range lo {
		lo[d] = -r
		hi[d] = r + 1
	}
	var out [][]int
	eachInBox(lo, hi, func(c []int) {
		for _, v := range c {
			if v != 0 {
				out = append(out, slices.Clone(c))
				return
			}
		}
	})
	return out
}

func chebyshev(offsets [][]int) int {
	r := 0
	for _, o := range offsets {
		for _, v := range o {
			if v < 0 {
				v = -v
			}
			r = max(r, v)
		}
	}
	return r
}

func offsetsRank(offsets [][]int) int {
	if len(offsets) == 0 {
		return 0
	}
	return len(offsets[0])
}

func checkOffsetsRank(h Neighborhood) error {
	want := h.rank()
	if want == 0 {
		return nil
	}
	for _, l := range h.layers(want) {
		for _, o := range l {
			if len(o) != want {
				return fmt.Errorf("%w: offset %v in a rank-%d neighborhood", ErrRankMismatch, o, want)
			}
		}
	}
	return nil
}

// compiledHood holds a neighborhood translated to physical deltas for one
// padded buffer layout.
type compiledHood struct {
	offsets [][][]int
	deltas  [][]int
}

func compileHood(h Neighborhood, rank int, strides []int) *compiledHood {
	layers := h.layers(rank)
	c := &compiledHood{offsets: layers, deltas: make([][]int, len(layers))}
	for i, l := range layers {
		c.deltas[i] = make([]int, len(l))
		for j, o := range l {
			delta := 0
			for d, v := range o {
				delta += v * strides[d]
			}
			c.deltas[i][j] = delta
		}
	}
	return c
}
