package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillBinaryDeterministic(t *testing.T) {
	a := make([]uint8, 256)
	b := make([]uint8, 256)
	FillBinary(NewRNG(3), a)
	FillBinary(NewRNG(3), b)
	assert.Equal(t, a, b)

	ones := 0
	for _, v := range a {
		assert.LessOrEqual(t, v, uint8(1))
		ones += int(v)
	}
	assert.Greater(t, ones, 64)
	assert.Less(t, ones, 192)
}

func TestFillBinaryOverwrites(t *testing.T) {
	buf := []float64{7, 7, 7, 7, 7, 7, 7, 7}
	FillBinary(NewRNG(1), buf)
	for _, v := range buf {
		assert.Contains(t, []float64{0, 1}, v)
	}
}

func TestStreamsDiffer(t *testing.T) {
	a := NewStream(9, 0, 1).Source().Uint64()
	assert.Equal(t, a, NewStream(9, 0, 1).Source().Uint64())
	assert.NotEqual(t, a, NewStream(9, 1, 1).Source().Uint64(), "replicates draw apart")
	assert.NotEqual(t, a, NewStream(9, 0, 2).Source().Uint64(), "resumed clocks draw apart")
}
