package engine

// Overflow resolves coordinates that fall outside the grid. The set of
// policies is closed: WrapOverflow and RemoveOverflow.
type Overflow interface {
	// Resolve maps coordinate c on a dimension of length n to an in-grid
	// coordinate, reporting false when the coordinate must be dropped.
	Resolve(c, n int) (int, bool)
	wraps() bool
}

// WrapOverflow wraps coordinates that overflow boundaries back to the
// opposite side, giving a toroidal topology.
type WrapOverflow struct{}

// Resolve always succeeds.
func (WrapOverflow) Resolve(c, n int) (int, bool) {
	return (c%n + n) % n, true
}

func (WrapOverflow) wraps() bool { return true }

// RemoveOverflow drops coordinates outside the grid. Neighbors beyond the edge
// read as zero.
type RemoveOverflow struct{}

// Resolve returns c unchanged and whether it lies inside [0, n).
func (RemoveOverflow) Resolve(c, n int) (int, bool) {
	return c, c >= 0 && c < n
}

func (RemoveOverflow) wraps() bool { return false }

func resolveIndex(o Overflow, idx, shape, dst []int) bool {
	for d, c := range idx {
		r, ok := o.Resolve(c, shape[d])
		if !ok {
			return false
		}
		dst[d] = r
	}
	return true
}
