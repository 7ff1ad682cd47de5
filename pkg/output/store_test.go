package output

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyngrid/pkg/engine"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := CreateStore[float64](StoreConfig{InMemory: true, Frames: 4, FPS: 12})
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.Run())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 12.0, s.FPS())
	_, _, ok := s.Last()
	assert.False(t, ok)

	a, err := engine.ArrayFrom([]float64{0.5, -2, 3e9, 0}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, s.Store(1, a))

	got, err := s.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, a.Shape(), got.Shape())
	assert.Equal(t, a.Cells(), got.Cells())

	_, err = s.Frame(2)
	assert.ErrorIs(t, err, ErrNoFrame)

	wrong := engine.NewArray[float64](3, 3)
	assert.ErrorIs(t, s.Store(2, wrong), ErrCorruptFrame)
	assert.Equal(t, []int{2, 2}, s.Meta().Shape)
	assert.Equal(t, 1, s.Meta().Last)
	assert.Equal(t, "float64", s.Meta().Cells)
}

func TestStoreKeepsIntegerPrecision(t *testing.T) {
	dir := t.TempDir()
	const big = int64(1)<<53 + 1

	signed, err := CreateStore[int64](StoreConfig{Path: dir, Run: "signed", Frames: 2})
	require.NoError(t, err)
	a, err := engine.ArrayFrom([]int64{big, -big, 0}, 3)
	require.NoError(t, err)
	require.NoError(t, signed.Store(1, a))
	assert.Equal(t, "int64", signed.Meta().Cells)
	require.NoError(t, signed.Close())

	unsigned, err := CreateStore[uint64](StoreConfig{Path: dir, Run: "unsigned", Frames: 2})
	require.NoError(t, err)
	u, err := engine.ArrayFrom([]uint64{1<<64 - 1, uint64(big)}, 2)
	require.NoError(t, err)
	require.NoError(t, unsigned.Store(1, u))
	assert.Equal(t, "uint64", unsigned.Meta().Cells)
	require.NoError(t, unsigned.Close())

	reopened, err := OpenStore[int64](StoreConfig{Path: dir, Run: "signed"})
	require.NoError(t, err)
	got, err := reopened.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{big, -big, 0}, got.Cells())
	require.NoError(t, reopened.Close())

	reopenedU, err := OpenStore[uint64](StoreConfig{Path: dir, Run: "unsigned"})
	require.NoError(t, err)
	defer reopenedU.Close()
	gotU, err := reopenedU.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1<<64 - 1, uint64(big)}, gotU.Cells())
}

func TestStoreEachInClockOrder(t *testing.T) {
	s, err := CreateStore[int](StoreConfig{InMemory: true, Run: "ordered", Frames: 12})
	require.NoError(t, err)
	defer s.Close()

	for _, ts := range []int{10, 2, 1, 11, 9} {
		a := engine.NewArray[int](3)
		a.Fill(ts)
		require.NoError(t, s.Store(ts, a))
	}

	var seen []int
	require.NoError(t, s.Each(func(ts int, f *engine.Array[int]) error {
		seen = append(seen, ts)
		assert.Equal(t, []int{ts, ts, ts}, f.Cells())
		return nil
	}))
	assert.Equal(t, []int{1, 2, 9, 10, 11}, seen)

	stop := errors.New("stop")
	assert.ErrorIs(t, s.Each(func(int, *engine.Array[int]) error { return stop }), stop)

	last, f, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 11, last)
	assert.Equal(t, []int{11, 11, 11}, f.Cells())
}

func TestStoreResumeAcrossProcesses(t *testing.T) {
	dir := t.TempDir()
	rs, init := blinker(t)

	s, err := CreateStore[float64](StoreConfig{Path: dir, Frames: 3})
	require.NoError(t, err)
	run := s.Run()
	_, err = engine.Run(context.Background(), s, rs, engine.WithInit(init), quiet())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenStore[float64](StoreConfig{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, run, reopened.Run(), "the latest run is opened by default")
	assert.Equal(t, 3, reopened.Len())

	st, err := engine.Resume(context.Background(), reopened, rs, 2, quiet())
	require.NoError(t, err)
	assert.Equal(t, 5, st.Time)

	f, err := reopened.Frame(5)
	require.NoError(t, err)
	assert.Equal(t, init.Cells(), f.Cells())
	f, err = reopened.Frame(4)
	require.NoError(t, err)
	assert.NotEqual(t, init.Cells(), f.Cells())
}

func TestStoreKeepsRunsApart(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateStore[int](StoreConfig{Path: dir, Run: "first", Labels: map[string]string{"model": "life"}})
	require.NoError(t, err)
	a := engine.NewArray[int](2)
	a.Fill(1)
	require.NoError(t, first.Store(1, a))
	require.NoError(t, first.Close())

	second, err := CreateStore[int](StoreConfig{Path: dir, Run: "second"})
	require.NoError(t, err)
	a.Fill(2)
	require.NoError(t, second.Store(1, a))
	require.NoError(t, second.Close())

	s, err := OpenStore[int](StoreConfig{Path: dir, Run: "first", Frames: 9})
	require.NoError(t, err)
	f, err := s.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, f.Cells())
	assert.Equal(t, 9, s.Len(), "a frame count override replaces the recorded one")
	assert.Equal(t, map[string]string{"model": "life"}, s.Meta().Labels)
	require.NoError(t, s.Close())

	s, err = OpenStore[int](StoreConfig{Path: dir})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "second", s.Run())
}

func TestOpenStoreWithoutRun(t *testing.T) {
	_, err := OpenStore[int](StoreConfig{Path: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = OpenStore[int](StoreConfig{})
	assert.Error(t, err, "a path is required")
}
