package briansbrain

import (
	"image/color"
	"strconv"

	"dyngrid/internal/core"
	prng "dyngrid/pkg/core"
	"dyngrid/pkg/engine"
)

const (
	stateDead  = 0
	stateOn    = 1
	stateDying = 2
)

// Brain implements Brian's Brain: firing cells start dying, dying cells die,
// and a dead cell fires when exactly two of its neighbors are firing.
type Brain[T engine.Number] struct{}

func (Brain[T]) Name() string { return "briansbrain" }

func (Brain[T]) Neighborhood() engine.Neighborhood { return engine.Moore() }

func (Brain[T]) Radius() int { return 1 }

func (Brain[T]) ApplyNeighborhood(_ *engine.Context, w *engine.Window[T], state T, _ engine.Index) T {
	switch state {
	case stateOn:
		return stateDying
	case stateDying:
		return stateDead
	}
	if w.Count(firing[T]) == 2 {
		return stateOn
	}
	return stateDead
}

func firing[T engine.Number](v T) bool { return v == stateOn }

// Config holds parameters for the brain model.
type Config struct {
	Width  int
	Height int
	// OneIn is the inverse probability of a cell starting out firing.
	OneIn int
	Wrap  bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, OneIn: 8, Wrap: true}
}

// FromMap populates a Config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["one_in"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.OneIn = parsed
		}
	}
	if v, ok := cfg["wrap"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Wrap = parsed
		}
	}
	return c
}

// Parameters reports the configuration for display.
func (c Config) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name: "World",
		Params: []core.Parameter{
			core.IntParam("w", "Width", c.Width),
			core.IntParam("h", "Height", c.Height),
			core.IntParam("one_in", "Initial firing odds (1 in N)", c.OneIn),
			core.BoolParam("wrap", "Wrap edges", c.Wrap),
		},
	}}}
}

// Seed randomizes cells into dead or firing states.
func Seed(shape []int, oneIn int, seed uint64) *engine.Array[float64] {
	a := engine.NewArray[float64](shape...)
	rng := prng.NewRNG(int64(seed)).Source()
	cells := a.Cells()
	for i := range cells {
		if rng.IntN(max(oneIn, 1)) == 0 {
			cells[i] = stateOn
		}
	}
	return a
}

var palette = [...]color.RGBA{
	stateDead:  {A: 0xff},
	stateOn:    {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	stateDying: {R: 0x30, G: 0x60, B: 0xd0, A: 0xff},
}

func colorOf(v float64) color.RGBA {
	i := int(v)
	if i < 0 || i >= len(palette) {
		return palette[stateDead]
	}
	return palette[i]
}

// Model builds the brain model from a config.
func Model(c Config) (*core.Model, error) {
	var opts []engine.RulesetOption
	if c.Wrap {
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	}
	rs, err := engine.NewRuleset([]engine.Rule[float64]{engine.Neighbors[float64](Brain[float64]{})}, opts...)
	if err != nil {
		return nil, err
	}
	shape := []int{c.Height, c.Width}
	return &core.Model{
		Name:   "briansbrain",
		Shape:  shape,
		Rules:  rs,
		Init:   func(seed uint64) *engine.Array[float64] { return Seed(shape, c.OneIn, seed) },
		Max:    stateDying,
		Color:  colorOf,
		Params: c.Parameters(),
	}, nil
}

func init() {
	core.Register("briansbrain", func(cfg map[string]string) (*core.Model, error) {
		return Model(FromMap(cfg))
	})
}
