package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadialOffsets(t *testing.T) {
	tests := []struct {
		r, rank, want int
	}{
		{r: 1, rank: 1, want: 2},
		{r: 1, rank: 2, want: 8},
		{r: 2, rank: 2, want: 24},
		{r: 1, rank: 3, want: 26},
		{r: 0, rank: 2, want: 0},
	}
	for _, tt := range tests {
		offsets := Offsets(Radial{R: tt.r}, tt.rank)
		assert.Len(t, offsets, tt.want, "radius %d rank %d", tt.r, tt.rank)
		for _, o := range offsets {
			assert.Len(t, o, tt.rank)
			assert.NotEqual(t, make([]int, tt.rank), o, "origin must be excluded")
		}
	}
}

func TestExtent(t *testing.T) {
	assert.Equal(t, 1, Extent(Moore()))
	assert.Equal(t, 1, Extent(VonNeumann()))
	assert.Equal(t, 2, Extent(Custom{Offsets: [][]int{{-2, 1}, {0, 1}}}))
	assert.Equal(t, 3, Extent(Layered{Layers: [][][]int{{{1, 0}}, {{0, -3}}}}))
	assert.Equal(t, -1, Extent(nil))
	assert.Equal(t, 5, HoodSize(2))
}

func TestCustomKeepsListedOrigin(t *testing.T) {
	h := Custom{Offsets: [][]int{{0}, {1}}}
	assert.Equal(t, [][]int{{0}, {1}}, Offsets(h, 1))
}

func TestCheckOffsetsRank(t *testing.T) {
	require.NoError(t, checkOffsetsRank(Moore()))
	require.NoError(t, checkOffsetsRank(VonNeumann()))
	err := checkOffsetsRank(Custom{Offsets: [][]int{{1, 0}, {1}}})
	require.ErrorIs(t, err, ErrRankMismatch)
}

func TestCompileHoodDeltas(t *testing.T) {
	// 3x4 logical grid padded by 1 gives a row stride of 6.
	c := compileHood(VonNeumann(), 2, []int{6, 1})
	require.Len(t, c.deltas, 1)
	assert.Equal(t, []int{-6, -1, 1, 6}, c.deltas[0])
}

func TestWindowAggregates(t *testing.T) {
	g := NewGrid[int]([]int{3, 3}, 1, RemoveOverflow{})
	a := NewArray[int](3, 3)
	for i := range a.Cells() {
		a.Cells()[i] = i + 1
	}
	require.NoError(t, g.Load(a))

	hood := Layered{Layers: [][][]int{
		{{-1, 0}, {1, 0}},
		{{0, -1}, {0, 1}},
	}}
	w := Window[int]{
		radius:   1,
		src:      g.source,
		strides:  g.strides,
		shape:    g.shape,
		hood:     compileHood(hood, 2, g.strides),
		overflow: g.overflow,
	}

	w.idx = Index{1, 1}
	w.center = g.Offset(w.idx)
	assert.Equal(t, 5, w.Center())
	assert.Equal(t, 20, w.Sum())
	assert.Equal(t, []int{10, 10}, w.LayerSums(nil))
	assert.Equal(t, 9, w.At(1, 1))

	w.idx = Index{0, 0}
	w.center = g.Offset(w.idx)
	assert.False(t, w.InBounds(-1, 0))
	assert.True(t, w.InBounds(1, 0))
	assert.Equal(t, 6, w.Sum(), "removed neighbors read as zero")
	assert.Equal(t, 2, w.Count(func(int) bool { return true }))
	assert.Equal(t, 1, w.CountLayer(0, func(int) bool { return true }))
	assert.Equal(t, 1, w.CountLayer(1, func(v int) bool { return v == 2 }))
	assert.Zero(t, w.CountLayer(2, func(int) bool { return true }))

	var seen [][]int
	w.Each(func(o []int, _ int) { seen = append(seen, o) })
	assert.Len(t, seen, 4)
}
