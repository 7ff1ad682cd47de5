package output

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyngrid/pkg/engine"
)

// blinkRule is a life rule, enough to give outputs something to record.
type blinkRule struct{}

func (blinkRule) Name() string                      { return "blink" }
func (blinkRule) Neighborhood() engine.Neighborhood { return engine.Moore() }
func (blinkRule) Radius() int                       { return 1 }

func (blinkRule) ApplyNeighborhood(_ *engine.Context, w *engine.Window[float64], state float64, _ engine.Index) float64 {
	n := w.Sum()
	if n == 3 || (state == 1 && n == 2) {
		return 1
	}
	return 0
}

func blinker(t *testing.T) (*engine.Ruleset[float64], *engine.Array[float64]) {
	t.Helper()
	rs, err := engine.NewRuleset([]engine.Rule[float64]{engine.Neighbors[float64](blinkRule{})})
	require.NoError(t, err)
	init := engine.NewArray[float64](5, 5)
	init.Set(1, 2, 1)
	init.Set(1, 2, 2)
	init.Set(1, 2, 3)
	return rs, init
}

func quiet() engine.RunOption {
	return engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestArrayOutputRun(t *testing.T) {
	rs, init := blinker(t)
	out := NewArrayOutput[float64](3)
	_, err := engine.Run(context.Background(), out, rs, engine.WithInit(init), quiet())
	require.NoError(t, err)

	frames := out.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, init.Cells(), frames[0].Cells())
	assert.Equal(t, init.Cells(), frames[2].Cells(), "period two")
	assert.NotEqual(t, init.Cells(), frames[1].Cells())

	last, f, ok := out.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last)
	assert.Same(t, frames[2], f)
}

func TestArrayOutputGrowsOnResume(t *testing.T) {
	rs, init := blinker(t)
	out := NewArrayOutput[float64](2)
	_, err := engine.Run(context.Background(), out, rs, engine.WithInit(init), quiet())
	require.NoError(t, err)

	st, err := engine.Resume(context.Background(), out, rs, 5, quiet())
	require.NoError(t, err)
	assert.Equal(t, 7, st.Time)
	assert.Len(t, out.Frames(), 7)

	f, err := out.Frame(7)
	require.NoError(t, err)
	assert.Equal(t, init.Cells(), f.Cells())

	_, err = out.Frame(8)
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.Error(t, out.Store(0, f))
}

func TestArrayOutputEmpty(t *testing.T) {
	out := NewArrayOutput[int](0)
	assert.Equal(t, 1, out.Len())
	_, _, ok := out.Last()
	assert.False(t, ok)
	assert.Equal(t, 2.5, out.WithFPS(2.5).FPS())
}

func TestRenderBlock(t *testing.T) {
	a, err := engine.ArrayFrom([]int{
		1, 0, 1,
		1, 1, 0,
		0, 0, 1,
	}, 3, 3)
	require.NoError(t, err)
	got := Render(a, Block, func(v float64) bool { return v >= 0.5 })
	assert.Equal(t, "█▄▀\n  ▀", got)
}

func TestRenderBraille(t *testing.T) {
	a := engine.NewArray[int](4, 2)
	a.Set(1, 0, 0)
	a.Set(1, 3, 1)
	got := Render(a, Braille, func(v float64) bool { return v > 0 })
	assert.Equal(t, string(rune(0x2800|0x01|0x80)), got)

	one := engine.NewArray[int](3)
	one.Set(1, 2)
	assert.Equal(t, string([]rune{0x2800, 0x2801}), Render(one, Braille, func(v float64) bool { return v > 0 }))
}

func TestREPLOutputPrints(t *testing.T) {
	rs, init := blinker(t)
	var buf bytes.Buffer
	out := NewREPLOutput[float64](&buf, 2, WithStorage(), WithPacing(0))
	_, err := engine.Run(context.Background(), out, rs, engine.WithInit(init), quiet())
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "t=1\n")
	assert.Contains(t, text, "t=2\n")
	assert.NotContains(t, text, cursorHome, "buffers are not terminals")
	assert.Len(t, out.Frames(), 2)

	last, _, ok := out.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last)
}

func TestREPLOutputCutoff(t *testing.T) {
	a, err := engine.ArrayFrom([]float64{0.2, 0.6, 0.9, 0.4}, 1, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	out := NewREPLOutput[float64](&buf, 1)
	require.NoError(t, out.Store(1, a))
	assert.Contains(t, buf.String(), " ▀▀ ")

	buf.Reset()
	out = NewREPLOutput[float64](&buf, 1, WithCutoff(0.3))
	require.NoError(t, out.Store(1, a))
	assert.Contains(t, buf.String(), " ▀▀▀")

	buf.Reset()
	out = NewREPLOutput[float64](&buf, 1, WithRange(0, 10))
	require.NoError(t, out.Store(1, a))
	assert.Contains(t, buf.String(), "    ")
	assert.Empty(t, out.Frames(), "frames are not kept without storage")
}

func TestREPLOutputRefreshAndFlush(t *testing.T) {
	a := engine.NewArray[int](2, 2)
	var buf bytes.Buffer
	out := NewREPLOutput[int](&buf, 10, WithRefresh(0.001))
	for ts := 1; ts <= 5; ts++ {
		require.NoError(t, out.Store(ts, a))
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "t="), "only the first frame is due")

	require.NoError(t, out.Flush())
	assert.Contains(t, buf.String(), "t=5\n")
	require.NoError(t, out.Flush())
	assert.Equal(t, 2, strings.Count(buf.String(), "t="), "flush draws a frame once")
}
