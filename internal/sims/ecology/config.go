package ecology

import "strconv"

// Params holds tunable thresholds and probabilities for the ecology sim.
type Params struct {
	RockChance          float64
	GrassPatchCount     int
	GrassPatchRadiusMin int
	GrassPatchRadiusMax int
	GrassPatchDensity   float64

	GrassNeighborThreshold int
	GrassSpreadChance      float64
	ShrubNeighborThreshold int
	ShrubGrowthChance      float64
	TreeNeighborThreshold  int
	TreeGrowthChance       float64

	BurnTTL          int
	FireSpreadChance float64
	LightningChance  float64

	SeedRadius int
	SeedChance float64
}

// Config controls the Ecology simulation dimensions.
type Config struct {
	Width  int
	Height int
	Wrap   bool

	Params Params
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:  256,
		Height: 256,
		Params: Params{
			RockChance:          0.05,
			GrassPatchCount:     12,
			GrassPatchRadiusMin: 2,
			GrassPatchRadiusMax: 5,
			GrassPatchDensity:   0.6,

			GrassNeighborThreshold: 2,
			GrassSpreadChance:      0.25,
			ShrubNeighborThreshold: 4,
			ShrubGrowthChance:      0.04,
			TreeNeighborThreshold:  3,
			TreeGrowthChance:       0.02,

			BurnTTL:          3,
			FireSpreadChance: 0.3,
			LightningChance:  0.00002,

			SeedRadius: 2,
			SeedChance: 0.05,
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	p := &c.Params
	positiveInt(cfg, "w", &c.Width)
	positiveInt(cfg, "h", &c.Height)
	if v, ok := cfg["wrap"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Wrap = parsed
		}
	}

	chance(cfg, "rock_chance", &p.RockChance)
	nonNegativeInt(cfg, "grass_patch_count", &p.GrassPatchCount)
	nonNegativeInt(cfg, "grass_patch_radius_min", &p.GrassPatchRadiusMin)
	nonNegativeInt(cfg, "grass_patch_radius_max", &p.GrassPatchRadiusMax)
	if p.GrassPatchRadiusMax < p.GrassPatchRadiusMin {
		p.GrassPatchRadiusMax = p.GrassPatchRadiusMin
	}
	chance(cfg, "grass_patch_density", &p.GrassPatchDensity)

	nonNegativeInt(cfg, "grass_neighbor_threshold", &p.GrassNeighborThreshold)
	chance(cfg, "grass_spread_chance", &p.GrassSpreadChance)
	nonNegativeInt(cfg, "shrub_neighbor_threshold", &p.ShrubNeighborThreshold)
	chance(cfg, "shrub_growth_chance", &p.ShrubGrowthChance)
	nonNegativeInt(cfg, "tree_neighbor_threshold", &p.TreeNeighborThreshold)
	chance(cfg, "tree_growth_chance", &p.TreeGrowthChance)

	positiveInt(cfg, "burn_ttl", &p.BurnTTL)
	chance(cfg, "fire_spread_chance", &p.FireSpreadChance)
	chance(cfg, "lightning_chance", &p.LightningChance)

	nonNegativeInt(cfg, "seed_radius", &p.SeedRadius)
	chance(cfg, "seed_chance", &p.SeedChance)
	return c
}

func positiveInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

func nonNegativeInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

// chance accepts probabilities and clamps them to [0, 1].
func chance(cfg map[string]string, key string, dst *float64) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = min(max(parsed, 0), 1)
		}
	}
}
