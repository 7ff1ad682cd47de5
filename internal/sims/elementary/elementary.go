package elementary

import (
	"strconv"

	"dyngrid/internal/core"
	prng "dyngrid/pkg/core"
	"dyngrid/pkg/engine"
)

// Config holds parameters for the elementary cellular automaton.
type Config struct {
	Width  int
	Height int
	Rule   uint8
	Wrap   bool
	// Random starts from a random row instead of a single active cell.
	Random bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Width: 256, Height: 256, Rule: 110, Wrap: true}
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
	if v, ok := cfg["rule"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= 255 {
			c.Rule = uint8(parsed)
		}
	}
	if v, ok := cfg["wrap"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Wrap = parsed
		}
	}
	if v, ok := cfg["random"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Random = parsed
		}
	}
	return c
}

// Parameters reports the configuration for display.
func (c Config) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name: "Automaton",
		Params: []core.Parameter{
			core.IntParam("w", "Width", c.Width),
			core.IntParam("h", "History rows", c.Height),
			core.IntParam("rule", "Wolfram code", int(c.Rule)),
			core.BoolParam("wrap", "Wrap edges", c.Wrap),
			core.BoolParam("random", "Random start", c.Random),
		},
	}}}
}

// Elementary is a one-dimensional Wolfram code rule. The left, center and
// right cells form a three bit index into the code.
type Elementary[T engine.Number] struct {
	Code uint8
}

var triple = engine.Custom{Offsets: [][]int{{-1}, {0}, {1}}}

func (Elementary[T]) Name() string { return "elementary" }

func (Elementary[T]) Neighborhood() engine.Neighborhood { return triple }

func (Elementary[T]) Radius() int { return 1 }

func (e Elementary[T]) ApplyNeighborhood(_ *engine.Context, w *engine.Window[T], _ T, _ engine.Index) T {
	idx := bit(w.At(-1))<<2 | bit(w.At(0))<<1 | bit(w.At(1))
	return T((e.Code >> idx) & 1)
}

func bit[T engine.Number](v T) uint8 {
	if v != 0 {
		return 1
	}
	return 0
}

// Seed returns a row with a single active cell in the middle.
func Seed(width int) *engine.Array[float64] {
	a := engine.NewArray[float64](width)
	a.Set(1, width/2)
	return a
}

// RandomSeed returns a row of independent fair coin flips.
func RandomSeed(width int, seed uint64) *engine.Array[float64] {
	a := engine.NewArray[float64](width)
	prng.FillBinary(prng.NewRNG(int64(seed)), a.Cells())
	return a
}

// Model builds the elementary model from a config.
func Model(c Config) (*core.Model, error) {
	var opts []engine.RulesetOption
	if c.Wrap {
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	}
	rule := engine.Neighbors[float64](Elementary[float64]{Code: c.Rule})
	rs, err := engine.NewRuleset([]engine.Rule[float64]{rule}, opts...)
	if err != nil {
		return nil, err
	}
	return &core.Model{
		Name:    "elementary",
		Shape:   []int{c.Width},
		Rules:   rs,
		Init:    c.initial,
		Max:     1,
		History: c.Height,
		Params:  c.Parameters(),
	}, nil
}

func (c Config) initial(seed uint64) *engine.Array[float64] {
	if c.Random {
		return RandomSeed(c.Width, seed)
	}
	return Seed(c.Width)
}

func init() {
	core.Register("elementary", func(cfg map[string]string) (*core.Model, error) {
		return Model(FromMap(cfg))
	})
}
