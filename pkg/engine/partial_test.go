package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shiftRule moves every value one cell along the last dimension.
type shiftRule struct{}

func (shiftRule) ApplyPartial(_ *Context, p *Partial[int], state int, idx Index) {
	if state == 0 {
		return
	}
	next := append(Index(nil), idx...)
	next[len(next)-1]++
	p.Add(-state, idx...)
	p.Add(state, next...)
}

func TestPartialShift(t *testing.T) {
	init, err := ArrayFrom([]int{1, 2, 3, 0, 7}, 5)
	require.NoError(t, err)

	wrap := mustRuleset(t, []Rule[int]{PartialCells[int](shiftRule{})}, WithOverflow(WrapOverflow{}))
	out, _ := runFrames(t, wrap, init, 2)
	assert.Equal(t, []int{7, 1, 2, 3, 0}, out.frames[2].Cells())

	remove := mustRuleset(t, []Rule[int]{PartialCells[int](shiftRule{})})
	out, _ = runFrames(t, remove, init, 2)
	assert.Equal(t, []int{0, 1, 2, 3, 0}, out.frames[2].Cells(), "values leaving the grid are dropped")
}

// footprintRule records which writes a radius-1 partial rule is allowed.
type footprintRule struct {
	near, far, outside []bool
}

func (*footprintRule) Radius() int { return 1 }

func (f *footprintRule) ApplyPartial(_ *Context, p *Partial[int], state int, idx Index) {
	if state == 0 {
		return
	}
	f.near = append(f.near, p.Set(5, idx[0]+1, idx[1]+1))
	f.far = append(f.far, p.Set(9, idx[0]+2, idx[1]))
	f.outside = append(f.outside, p.Add(1, idx[0]-1, idx[1]))
}

func TestPartialNeighborhoodFootprint(t *testing.T) {
	rule := &footprintRule{}
	rs := mustRuleset(t, []Rule[int]{PartialNeighbors[int](rule)})
	assert.Equal(t, 1, rs.Radius())

	init := NewArray[int](4, 4)
	init.Set(1, 0, 1)
	out, _ := runFrames(t, rs, init, 2)

	assert.Equal(t, []bool{true}, rule.near)
	assert.Equal(t, []bool{false}, rule.far, "writes beyond the radius are rejected")
	assert.Equal(t, []bool{false}, rule.outside, "writes off the grid are dropped")

	want := NewArray[int](4, 4)
	want.Set(1, 0, 1)
	want.Set(5, 1, 2)
	assert.Equal(t, want.Cells(), out.frames[2].Cells())
}

func TestPartialReadsSourceAndDest(t *testing.T) {
	g := NewGrid[int]([]int{3, 3}, 1, WrapOverflow{})
	require.NoError(t, g.Load(numbered(3, 3)))
	p := newPartial(g, -1)

	v, ok := p.Source(-1, -1)
	require.True(t, ok)
	assert.Equal(t, 9, v)

	require.True(t, p.Set(42, 3, 0))
	d, ok := p.Dest(0, 0)
	require.True(t, ok)
	assert.Equal(t, 42, d)
	s, _ := p.Source(0, 0)
	assert.Equal(t, 1, s, "source is untouched by writes")
	assert.True(t, p.InBounds(-4, 7))
	assert.Equal(t, []int{3, 3}, p.Shape())
}

// spread adds one to every Moore neighbor of an occupied cell, capped at 3.
type spread struct{}

func (spread) Radius() int { return 1 }

func (spread) ApplyPartial(_ *Context, p *Partial[uint8], state uint8, idx Index) {
	if state == 0 {
		return
	}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if v, ok := p.Dest(idx[0]+dr, idx[1]+dc); ok && v < 3 {
				p.Set(v+1, idx[0]+dr, idx[1]+dc)
			}
		}
	}
}

func TestSparsePartialNeighborhoodMatchesDense(t *testing.T) {
	init := NewArray[uint8](12, 12)
	init.Set(1, 5, 5)
	rule := PartialNeighbors[uint8](spread{})

	dense, _ := runFrames(t, mustRuleset(t, []Rule[uint8]{rule}, WithOverflow(WrapOverflow{})), init, 6)
	sparseRS := mustRuleset(t, []Rule[uint8]{rule}, WithOverflow(WrapOverflow{}), WithSparse(), WithBlockSize(2))
	sparse, _ := runFrames(t, sparseRS, init, 6)
	for ts := 1; ts <= 6; ts++ {
		assert.Equal(t, dense.frames[ts].Cells(), sparse.frames[ts].Cells(), "frame %d", ts)
	}
}
