package ecology

import "dyngrid/internal/core"

// Parameters reports the configuration for display.
func (c Config) Parameters() core.ParameterSnapshot {
	p := c.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", c.Width),
				core.IntParam("h", "Height", c.Height),
				core.BoolParam("wrap", "Wrap edges", c.Wrap),
			},
		},
		{
			Name: "Terrain Seeding",
			Params: []core.Parameter{
				core.FloatParam("rock_chance", "Rock chance", p.RockChance),
				core.IntParam("grass_patch_count", "Grass patch count", p.GrassPatchCount),
				core.IntParam("grass_patch_radius_min", "Grass patch radius min", p.GrassPatchRadiusMin),
				core.IntParam("grass_patch_radius_max", "Grass patch radius max", p.GrassPatchRadiusMax),
				core.FloatParam("grass_patch_density", "Grass patch density", p.GrassPatchDensity),
			},
		},
		{
			Name: "Vegetation",
			Params: []core.Parameter{
				core.IntParam("grass_neighbor_threshold", "Grass neighbor threshold", p.GrassNeighborThreshold),
				core.FloatParam("grass_spread_chance", "Grass spread chance", p.GrassSpreadChance),
				core.IntParam("shrub_neighbor_threshold", "Shrub neighbor threshold", p.ShrubNeighborThreshold),
				core.FloatParam("shrub_growth_chance", "Shrub growth chance", p.ShrubGrowthChance),
				core.IntParam("tree_neighbor_threshold", "Tree neighbor threshold", p.TreeNeighborThreshold),
				core.FloatParam("tree_growth_chance", "Tree growth chance", p.TreeGrowthChance),
				core.IntParam("seed_radius", "Seed radius", p.SeedRadius),
				core.FloatParam("seed_chance", "Seed chance", p.SeedChance),
			},
		},
		{
			Name: "Fire",
			Params: []core.Parameter{
				core.IntParam("burn_ttl", "Burn TTL", p.BurnTTL),
				core.FloatParam("fire_spread_chance", "Fire spread chance", p.FireSpreadChance),
				core.FloatParam("lightning_chance", "Lightning chance", p.LightningChance),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}
