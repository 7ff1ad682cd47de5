package engine

import (
	"fmt"
	"slices"
)

// Number constrains the element types a grid can hold.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Index is a logical, zero-based grid coordinate. The engine reuses the slice
// it hands to rules, so rules must copy it before keeping it.
type Index []int

// Array is a dense row-major array of arbitrary rank. The last dimension is
// stored contiguously.
type Array[T Number] struct {
	shape   []int
	strides []int
	cells   []T
}

// NewArray allocates a zeroed array. Non-positive dimensions are clamped to 1.
func NewArray[T Number](shape ...int) *Array[T] {
	s := normalizeShape(shape)
	return &Array[T]{shape: s, strides: stridesFor(s), cells: make([]T, volume(s))}
}

// ArrayFrom wraps cells, which must hold exactly the volume of shape.
func ArrayFrom[T Number](cells []T, shape ...int) (*Array[T], error) {
	s := normalizeShape(shape)
	if len(cells) != volume(s) {
		return nil, fmt.Errorf("engine: %d cells do not fill shape %v", len(cells), s)
	}
	return &Array[T]{shape: s, strides: stridesFor(s), cells: cells}, nil
}

// Shape returns a copy of the array dimensions.
func (a *Array[T]) Shape() []int { return slices.Clone(a.shape) }

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int { return len(a.shape) }

// Len returns the number of cells.
func (a *Array[T]) Len() int { return len(a.cells) }

// Cells exposes the backing slice.
func (a *Array[T]) Cells() []T { return a.cells }

// At returns the value at idx.
func (a *Array[T]) At(idx ...int) T { return a.cells[a.offset(idx)] }

// Set stores v at idx.
func (a *Array[T]) Set(v T, idx ...int) { a.cells[a.offset(idx)] = v }

// Fill sets every cell to v.
func (a *Array[T]) Fill(v T) {
	for i := range a.cells {
		a.cells[i] = v
	}
}

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	return &Array[T]{shape: slices.Clone(a.shape), strides: slices.Clone(a.strides), cells: slices.Clone(a.cells)}
}

func (a *Array[T]) offset(idx []int) int {
	off := 0
	for d, i := range idx {
		off += i * a.strides[d]
	}
	return off
}

func normalizeShape(shape []int) []int {
	if len(shape) == 0 {
		return []int{1}
	}
	s := slices.Clone(shape)
	for i, n := range s {
		if n <= 0 {
			s[i] = 1
		}
	}
	return s
}

func stridesFor(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = step
		step *= shape[d]
	}
	return strides
}

func volume(shape []int) int {
	total := 1
	for _, n := range shape {
		total *= n
	}
	return total
}

// eachInBox calls fn for every coordinate c with lo <= c < hi, last dimension
// fastest. The coordinate slice is reused between calls.
func eachInBox(lo, hi []int, fn func(c []int)) {
	rank := len(lo)
	for d := 0; d < rank; d++ {
		if hi[d] <= lo[d] {
			return
		}
	}
	c := slices.Clone(lo)
	for {
		fn(c)
		d := rank - 1
		for ; d >= 0; d-- {
			c[d]++
			if c[d] < hi[d] {
				break
			}
			c[d] = lo[d]
		}
		if d < 0 {
			return
		}
	}
}
