package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// NewStream derives the random stream of one replicate. Streams for different
// replicates of the same seed are independent, and a run resumed at clock t
// does not replay the draws of the run that started at 1.
func NewStream(seed uint64, replicate, t int) *RNG {
	hi := seed ^ uint64(t)*0x9e3779b97f4a7c15
	return &RNG{r: rand.New(rand.NewPCG(hi, uint64(replicate)+1))}
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.r.Float64() < p
}

// FillBinary fills the buffer with 0/1 values using the RNG.
func FillBinary[T ~uint8 | ~int | ~float64](r *RNG, buf []T) {
	for i := range buf {
		if r.Bool() {
			buf[i] = 1
		} else {
			buf[i] = 0
		}
	}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
