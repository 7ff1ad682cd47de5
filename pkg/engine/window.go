package engine

// Window is the read-only view a neighborhood rule gets of the padded source
// buffer around one cell. Offsets passed to its methods must lie within the
// rule's radius.
type Window[T Number] struct {
	radius   int
	src      []T
	center   int
	strides  []int
	shape    []int
	idx      Index
	hood     *compiledHood
	overflow Overflow
}

// Radius returns the window radius.
func (w *Window[T]) Radius() int { return w.radius }

// Center returns the value of the center cell.
func (w *Window[T]) Center() T { return w.src[w.center] }

// At returns the value at a relative offset from the center.
func (w *Window[T]) At(offset ...int) T {
	return w.src[w.center+w.delta(offset)]
}

// InBounds reports whether the cell at offset lies on the grid once overflow
// is applied. Under WrapOverflow it is always true.
func (w *Window[T]) InBounds(offset ...int) bool {
	if w.overflow.wraps() {
		return true
	}
	for d, v := range offset {
		if _, ok := w.overflow.Resolve(w.idx[d]+v, w.shape[d]); !ok {
			return false
		}
	}
	return true
}

// Sum aggregates every neighborhood cell across all layers.
func (w *Window[T]) Sum() T {
	var s T
	for _, layer := range w.hood.deltas {
		for _, d := range layer {
			s += w.src[w.center+d]
		}
	}
	return s
}

// LayerSums appends one aggregate per neighborhood layer to dst.
func (w *Window[T]) LayerSums(dst []T) []T {
	for _, layer := range w.hood.deltas {
		var s T
		for _, d := range layer {
			s += w.src[w.center+d]
		}
		dst = append(dst, s)
	}
	return dst
}

// Count returns how many neighborhood cells satisfy pred. Cells removed by
// RemoveOverflow are not counted.
func (w *Window[T]) Count(pred func(T) bool) int {
	n := 0
	for li := range w.hood.deltas {
		n += w.countLayer(li, pred)
	}
	return n
}

// CountLayer is Count restricted to one layer of a Layered neighborhood.
// Other neighborhoods have a single layer 0.
func (w *Window[T]) CountLayer(layer int, pred func(T) bool) int {
	if layer < 0 || layer >= len(w.hood.deltas) {
		return 0
	}
	return w.countLayer(layer, pred)
}

func (w *Window[T]) countLayer(li int, pred func(T) bool) int {
	n := 0
	wraps := w.overflow.wraps()
	for j, d := range w.hood.deltas[li] {
		if !wraps && !w.InBounds(w.hood.offsets[li][j]...) {
			continue
		}
		if pred(w.src[w.center+d]) {
			n++
		}
	}
	return n
}

// Each calls fn with every neighborhood offset and its value.
func (w *Window[T]) Each(fn func(offset []int, v T)) {
	for li, layer := range w.hood.deltas {
		for j, d := range layer {
			fn(w.hood.offsets[li][j], w.src[w.center+d])
		}
	}
}

func (w *Window[T]) delta(offset []int) int {
	d := 0
	for i, v := range offset {
		d += v * w.strides[i]
	}
	return d
}
