package elementary

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyngrid/internal/core"
	"dyngrid/pkg/engine"
	"dyngrid/pkg/output"
)

func runRule(t *testing.T, code uint8, wrap bool, init *engine.Array[int], frames int) []*engine.Array[int] {
	t.Helper()
	var opts []engine.RulesetOption
	if wrap {
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	}
	rs, err := engine.NewRuleset([]engine.Rule[int]{engine.Neighbors[int](Elementary[int]{Code: code})}, opts...)
	require.NoError(t, err)
	out := output.NewArrayOutput[int](frames)
	_, err = engine.Run(context.Background(), out, rs, engine.WithInit(init),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return out.Frames()
}

func row(t *testing.T, cells ...int) *engine.Array[int] {
	t.Helper()
	a, err := engine.ArrayFrom(cells, len(cells))
	require.NoError(t, err)
	return a
}

func TestRule90Sierpinski(t *testing.T) {
	frames := runRule(t, 90, true, row(t, 0, 0, 0, 0, 1, 0, 0, 0, 0), 4)
	assert.Equal(t, []int{0, 0, 0, 1, 0, 1, 0, 0, 0}, frames[1].Cells())
	assert.Equal(t, []int{0, 0, 1, 0, 0, 0, 1, 0, 0}, frames[2].Cells())
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0, 1, 0}, frames[3].Cells())
}

func TestRule30(t *testing.T) {
	frames := runRule(t, 30, true, row(t, 0, 0, 0, 0, 1, 0, 0, 0, 0), 2)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 0, 0, 0}, frames[1].Cells())
}

func TestEdgesFollowOverflow(t *testing.T) {
	// Rule 2 copies the right neighbor, shifting the pattern left.
	wrapped := runRule(t, 2, true, row(t, 1, 0, 0, 0, 0), 2)
	assert.Equal(t, []int{0, 0, 0, 0, 1}, wrapped[1].Cells())

	removed := runRule(t, 2, false, row(t, 1, 0, 0, 0, 0), 2)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, removed[1].Cells())
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{"w": "64", "rule": "300", "wrap": "0"})
	assert.Equal(t, 64, c.Width)
	assert.Equal(t, uint8(110), c.Rule)
	assert.False(t, c.Wrap)

	c = FromMap(map[string]string{"rule": "30"})
	assert.Equal(t, uint8(30), c.Rule)
}

func TestRegisteredModel(t *testing.T) {
	m, err := core.Build("elementary", map[string]string{"w": "11", "h": "40"})
	require.NoError(t, err)
	assert.Equal(t, []int{11}, m.Shape)
	assert.Equal(t, 40, m.History)

	init := m.Init(0)
	assert.Equal(t, 1.0, init.At(5))
	assert.Equal(t, 1.0, sum(init.Cells()))
}

func TestRandomStart(t *testing.T) {
	m, err := core.Build("elementary", map[string]string{"w": "64", "random": "true"})
	require.NoError(t, err)

	a, b := m.Init(7), m.Init(7)
	assert.Equal(t, a.Cells(), b.Cells(), "same seed, same row")
	assert.NotEqual(t, a.Cells(), m.Init(8).Cells())
	for _, v := range a.Cells() {
		assert.Contains(t, []float64{0, 1}, v)
	}
	on := sum(a.Cells())
	assert.Greater(t, on, 8.0)
	assert.Less(t, on, 56.0)

	p, ok := m.Parameters().Lookup("random")
	require.True(t, ok)
	assert.Equal(t, "true", p.Value)
}

func sum(cells []float64) float64 {
	var s float64
	for _, v := range cells {
		s += v
	}
	return s
}
