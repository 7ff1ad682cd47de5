package engine

import "slices"

// Status is the activity bitmap of one replicate: one flag per block of
// cells, telling the sequencer which blocks may change in the next step.
//
// Partial rule writes are not tracked cell by cell. A partial pass marks every
// block it could have written, dilated once more by its radius, which is a
// conservative approximation rather than exact dirty tracking.
type Status struct {
	blockSize int
	shape     []int
	blocks    []int
	strides   []int
	wraps     bool
	active    []bool
	next      []bool

	lists [][]int
	coord []int
}

func newStatus(shape []int, blockSize int, overflow Overflow) *Status {
	blocks := make([]int, len(shape))
	for d, n := range shape {
		blocks[d] = (n + blockSize - 1) / blockSize
	}
	total := volume(blocks)
	s := &Status{
		blockSize: blockSize,
		shape:     slices.Clone(shape),
		blocks:    blocks,
		strides:   stridesFor(blocks),
		wraps:     overflow.wraps(),
		active:    make([]bool, total),
		next:      make([]bool, total),
		lists:     make([][]int, len(shape)),
		coord:     make([]int, len(shape)),
	}
	s.reset()
	return s
}

// Len returns the number of blocks.
func (s *Status) Len() int { return len(s.active) }

// BlockSize returns the block side length in cells.
func (s *Status) BlockSize() int { return s.blockSize }

// Active reports whether block b must be evaluated in the current step.
func (s *Status) Active(b int) bool { return s.active[b] }

// ActiveCount returns the number of active blocks.
func (s *Status) ActiveCount() int {
	n := 0
	for _, a := range s.active {
		if a {
			n++
		}
	}
	return n
}

func (s *Status) reset() {
	for i := range s.active {
		s.active[i] = true
	}
	clear(s.next)
}

// advance makes the marks collected during a step the active set of the next.
func (s *Status) advance() {
	s.active, s.next = s.next, s.active
	clear(s.next)
}

// markCell flags every block within r cells of idx for the next step.
func (s *Status) markCell(idx []int, r int) {
	s.markRange(idx, idx, r)
}

// markBlock flags every block within r cells of block b's cells.
func (s *Status) markBlock(blockLo, blockHi []int, r int) {
	for d := range blockLo {
		s.coord[d] = blockHi[d] - 1
	}
	s.markRange(blockLo, s.coord, r)
}

func (s *Status) markAll() {
	for i := range s.next {
		s.next[i] = true
	}
}

// markRange flags the blocks touched by the inclusive cell box [lo-r, hi+r].
func (s *Status) markRange(lo, hi []int, r int) {
	for d := range lo {
		s.lists[d] = s.touched(s.lists[d][:0], lo[d]-r, hi[d]+r, s.shape[d])
	}
	s.markProduct(0, 0)
}

func (s *Status) markProduct(d, off int) {
	if d == len(s.lists) {
		s.next[off] = true
		return
	}
	for _, b := range s.lists[d] {
		s.markProduct(d+1, off+b*s.strides[d])
	}
}

// touched appends the blocks on one dimension covered by cells [lo, hi],
// wrapping or clipping at the edges.
func (s *Status) touched(dst []int, lo, hi, n int) []int {
	bs := s.blockSize
	if hi-lo+1 >= n {
		if !s.wraps {
			lo, hi = max(lo, 0), min(hi, n-1)
			return appendBlocks(dst, lo/bs, hi/bs)
		}
		return appendBlocks(dst, 0, (n-1)/bs)
	}
	if s.wraps {
		if lo < 0 {
			dst = appendBlocks(dst, (lo+n)/bs, (n-1)/bs)
			lo = 0
		}
		if hi >= n {
			dst = appendBlocks(dst, 0, (hi-n)/bs)
			hi = n - 1
		}
	}
	lo, hi = max(lo, 0), min(hi, n-1)
	if lo > hi {
		return dst
	}
	return appendBlocks(dst, lo/bs, hi/bs)
}

func appendBlocks(dst []int, from, to int) []int {
	for b := from; b <= to; b++ {
		dst = append(dst, b)
	}
	return dst
}

func (s *Status) blockIndex(b []int) int {
	off := 0
	for d, v := range b {
		off += v * s.strides[d]
	}
	return off
}
