package life

import (
	"slices"
	"strconv"
	"strings"

	"dyngrid/internal/core"
)

// Preset is a named pair of birth and survival sets.
type Preset struct {
	Birth   []int
	Survive []int
}

// Presets lists well-known life-like rules.
var Presets = map[string]Preset{
	"conway":     {Birth: []int{3}, Survive: []int{2, 3}},
	"morley":     {Birth: []int{3, 6, 8}, Survive: []int{2, 4, 5}},
	"2x2":        {Birth: []int{3, 6}, Survive: []int{1, 2, 5}},
	"dimoeba":    {Birth: []int{3, 5, 6, 7, 8}, Survive: []int{5, 6, 7, 8}},
	"nodeath":    {Birth: []int{3}, Survive: []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
	"34life":     {Birth: []int{3, 4}, Survive: []int{3, 4}},
	"replicator": {Birth: []int{1, 3, 5, 7}, Survive: []int{1, 3, 5, 7}},
}

// Config holds parameters for the life model.
type Config struct {
	Width   int
	Height  int
	Preset  string
	Birth   []int
	Survive []int
	Density float64
	Wrap    bool
	Sparse  bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	p := Presets["conway"]
	return Config{
		Width:   256,
		Height:  256,
		Preset:  "conway",
		Birth:   slices.Clone(p.Birth),
		Survive: slices.Clone(p.Survive),
		Density: 0.2,
		Wrap:    true,
		Sparse:  true,
	}
}

// FromMap populates a Config from a string map. Explicit "b" and "s" sets
// override the preset.
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
	if v, ok := cfg["preset"]; ok {
		if p, found := Presets[strings.ToLower(v)]; found {
			c.Preset = strings.ToLower(v)
			c.Birth = slices.Clone(p.Birth)
			c.Survive = slices.Clone(p.Survive)
		}
	}
	if v, ok := cfg["b"]; ok {
		if parsed, ok := parseCounts(v); ok {
			c.Birth = parsed
			c.Preset = "custom"
		}
	}
	if v, ok := cfg["s"]; ok {
		if parsed, ok := parseCounts(v); ok {
			c.Survive = parsed
			c.Preset = "custom"
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Density = parsed
		}
	}
	if v, ok := cfg["wrap"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Wrap = parsed
		}
	}
	if v, ok := cfg["sparse"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Sparse = parsed
		}
	}
	return c
}

// parseCounts reads a comma separated list of neighbor counts in [0, 8].
// An empty string is the empty set.
func parseCounts(v string) ([]int, bool) {
	out := []int{}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 8 {
			return nil, false
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, true
}

// Parameters reports the configuration for display.
func (c Config) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", c.Width),
				core.IntParam("h", "Height", c.Height),
				core.BoolParam("wrap", "Wrap edges", c.Wrap),
				core.BoolParam("sparse", "Skip quiet blocks", c.Sparse),
			},
		},
		{
			Name: "Rule",
			Params: []core.Parameter{
				core.StringParam("preset", "Preset", c.Preset),
				core.StringParam("b", "Birth", core.IntsValue(c.Birth)),
				core.StringParam("s", "Survive", core.IntsValue(c.Survive)),
				core.FloatParam("density", "Initial density", c.Density),
			},
		},
	}}
}
