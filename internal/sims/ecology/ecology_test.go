package ecology

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyngrid/internal/core"
	"dyngrid/pkg/engine"
	"dyngrid/pkg/output"
)

// still returns a config where nothing grows, burns or spreads unless a test
// turns it on.
func still(w, h int) Config {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	cfg.Params.GrassPatchCount = 0
	cfg.Params.RockChance = 0
	cfg.Params.GrassSpreadChance = 0
	cfg.Params.ShrubGrowthChance = 0
	cfg.Params.TreeGrowthChance = 0
	cfg.Params.FireSpreadChance = 0
	cfg.Params.LightningChance = 0
	cfg.Params.SeedChance = 0
	return cfg
}

func layout(t *testing.T, cfg Config, cells map[int]float64) *engine.Array[float64] {
	t.Helper()
	a := engine.NewArray[float64](cfg.Height, cfg.Width)
	for i, v := range cells {
		a.Cells()[i] = v
	}
	return a
}

func simulate(t *testing.T, cfg Config, init *engine.Array[float64], frames int, seed uint64) []*engine.Array[float64] {
	t.Helper()
	rs, err := Rules(cfg)
	require.NoError(t, err)
	out := output.NewArrayOutput[float64](frames)
	_, err = engine.Run(context.Background(), out, rs,
		engine.WithInit(init),
		engine.WithSeed(seed),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	return out.Frames()
}

func TestSeedDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 32
	cfg.Height = 24
	cfg.Params.RockChance = 0.2
	cfg.Params.GrassPatchCount = 6

	a := Seed(cfg, 99)
	b := Seed(cfg, 99)
	assert.Equal(t, a.Cells(), b.Cells(), "same seed, same landscape")
	assert.NotEqual(t, a.Cells(), Seed(cfg, 777).Cells())

	m := Census(a)
	assert.Positive(t, m.Rock)
	assert.Positive(t, m.Grass)
	assert.Zero(t, m.Burning)
}

func TestFireBurnsOutAndClears(t *testing.T) {
	cfg := still(3, 1)
	cfg.Params.BurnTTL = 2

	frames := simulate(t, cfg, layout(t, cfg, map[int]float64{1: burnBase + 2}), 3, 1)
	assert.True(t, Burning(frames[1].At(0, 1)), "one step of burn left")
	assert.Equal(t, float64(burnBase+1), frames[1].At(0, 1))
	assert.Equal(t, float64(Dirt), frames[2].At(0, 1), "burnt cells clear to dirt")
}

func TestFireSpreadsToNeighbor(t *testing.T) {
	cfg := still(3, 1)
	cfg.Params.BurnTTL = 2
	cfg.Params.FireSpreadChance = 1

	init := layout(t, cfg, map[int]float64{0: burnBase + 2, 1: Grass, 2: Rock})
	frames := simulate(t, cfg, init, 2, 2)
	assert.Equal(t, float64(burnBase+1), frames[1].At(0, 0), "source tile keeps burning")
	assert.Equal(t, float64(burnBase+2), frames[1].At(0, 1), "neighbor ignites with spread chance 1")
	assert.Equal(t, float64(Rock), frames[1].At(0, 2), "rock never burns")
}

func TestIgniteChance(t *testing.T) {
	assert.InDelta(t, 0.3, igniteChance(0.3, 1, 0), 1e-12)
	assert.InDelta(t, 0.15, igniteChance(0.3, 0, 1), 1e-12)
	assert.InDelta(t, 1-0.7*0.7*0.85, igniteChance(0.3, 2, 1), 1e-12)
	assert.Zero(t, igniteChance(0.3, 0, 0))
}

func TestLightningStrikesVegetation(t *testing.T) {
	cfg := still(4, 4)
	cfg.Params.LightningChance = 1
	cfg.Params.BurnTTL = 3

	init := engine.NewArray[float64](4, 4)
	init.Fill(Tree)
	init.Set(Rock, 0, 0)
	frames := simulate(t, cfg, init, 2, 3)

	m := Census(frames[1])
	assert.Equal(t, 15, m.Burning)
	assert.Equal(t, 1, m.Rock)
}

func TestVegetationSpreadFromSeed(t *testing.T) {
	cfg := still(4, 4)
	cfg.Params.GrassSpreadChance = 1
	cfg.Params.GrassNeighborThreshold = 1

	// Seed a single grass tile at (1,1).
	frames := simulate(t, cfg, layout(t, cfg, map[int]float64{5: Grass}), 2, 2024)

	grass := map[int]bool{}
	for i, v := range frames[1].Cells() {
		if v == Grass {
			grass[i] = true
		}
	}
	want := map[int]bool{0: true, 1: true, 2: true, 4: true, 5: true, 6: true, 8: true, 9: true, 10: true}
	assert.Equal(t, want, grass)
}

func TestVegetationSuccessionDeterministic(t *testing.T) {
	cfg := still(4, 4)
	cfg.Params.GrassSpreadChance = 1
	cfg.Params.ShrubGrowthChance = 1
	cfg.Params.TreeGrowthChance = 1
	cfg.Params.ShrubNeighborThreshold = 3

	cells := map[int]float64{
		1: Grass, 4: Grass, 5: Grass, 6: Grass,
		9: Shrub, 10: Shrub, 11: Shrub, 14: Shrub,
	}
	a := simulate(t, cfg, layout(t, cfg, cells), 2, 77)
	b := simulate(t, cfg, layout(t, cfg, cells), 2, 77)
	assert.Equal(t, a[1].Cells(), b[1].Cells(), "succession diverged for identical seeds")

	assert.Equal(t, float64(Shrub), a[1].Cells()[5], "three grass neighbors advance grass to shrub")
	assert.Equal(t, float64(Tree), a[1].Cells()[10], "three shrub neighbors advance shrub to tree")
}

func TestSeedDispersalStaysWithinRadius(t *testing.T) {
	cfg := still(7, 7)
	cfg.Params.SeedChance = 1
	cfg.Params.SeedRadius = 1

	frames := simulate(t, cfg, layout(t, cfg, map[int]float64{24: Tree}), 12, 5)
	last := frames[len(frames)-1]
	planted := 0
	for y := range 7 {
		for x := range 7 {
			if last.At(y, x) != Grass {
				continue
			}
			planted++
			assert.LessOrEqual(t, max(abs(y-3), abs(x-3)), 1, "seed at (%d,%d) flew too far", y, x)
		}
	}
	assert.Positive(t, planted)
	assert.Equal(t, float64(Tree), last.At(3, 3))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestRulesShape(t *testing.T) {
	rs, err := Rules(DefaultConfig())
	require.NoError(t, err)
	rules := rs.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, engine.KindChain, rules[0].Kind())
	assert.Equal(t, "chain(succession,fire)", rules[0].Name())
	assert.Equal(t, engine.KindPartialNeighborhood, rules[1].Kind())
	assert.Equal(t, 2, rs.Radius())

	cfg := DefaultConfig()
	cfg.Params.SeedChance = 0
	rs, err = Rules(cfg)
	require.NoError(t, err)
	assert.Len(t, rs.Rules(), 1, "dispersal is dropped when seeds never fall")
}

func TestCensusClusters(t *testing.T) {
	a, err := engine.ArrayFrom([]float64{
		Grass, Grass, Dirt, Tree,
		Dirt, Shrub, Dirt, Dirt,
		Rock, Dirt, burnBase + 1, Grass,
	}, 3, 4)
	require.NoError(t, err)

	m := Census(a)
	assert.Equal(t, 3, m.Grass)
	assert.Equal(t, 1, m.Shrub)
	assert.Equal(t, 1, m.Tree)
	assert.Equal(t, 1, m.Rock)
	assert.Equal(t, 1, m.Burning)
	assert.Equal(t, 5, m.Dirt)
	assert.Equal(t, 5, m.TotalVegetated)
	assert.Equal(t, 2, m.ClusterHistogram[1])
	assert.Equal(t, 1, m.ClusterHistogram[3])
}

func TestColorsAreDistinct(t *testing.T) {
	dirt := Color(Dirt)
	grass := Color(Grass)
	burn := Color(burnBase + 3)
	assert.NotEqual(t, dirt, grass, "vegetation differs from bare ground")
	assert.NotEqual(t, burn, grass, "burning differs from vegetation")
	assert.NotEqual(t, Color(Rock), dirt)
	assert.NotEqual(t, Color(burnBase+1), burn, "fire fades as it burns down")
}

func TestFromMapClamps(t *testing.T) {
	c := FromMap(map[string]string{
		"w":                      "40",
		"fire_spread_chance":     "1.5",
		"lightning_chance":       "-1",
		"burn_ttl":               "0",
		"grass_patch_radius_min": "6",
		"grass_patch_radius_max": "3",
		"wrap":                   "true",
	})
	assert.Equal(t, 40, c.Width)
	assert.Equal(t, 1.0, c.Params.FireSpreadChance)
	assert.Zero(t, c.Params.LightningChance)
	assert.Equal(t, 3, c.Params.BurnTTL)
	assert.Equal(t, 6, c.Params.GrassPatchRadiusMax)
	assert.True(t, c.Wrap)
}

func TestRegisteredModel(t *testing.T) {
	m, err := core.Build("ecology", map[string]string{"w": "20", "h": "10"})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, m.Shape)
	assert.Equal(t, []int{10, 20}, m.Init(1).Shape())
	require.NotNil(t, m.Color)

	p, ok := m.Parameters().Lookup("fire_spread_chance")
	require.True(t, ok)
	assert.Equal(t, "0.3", p.Value)
}

func TestCoverReducer(t *testing.T) {
	dst := make([]float64, 3)
	Cover(dst, [][]float64{
		{Grass, Dirt, burnBase + 1},
		{Tree, Grass, Dirt},
	})
	assert.Equal(t, []float64{1, 0.5, 0}, dst)
}

func TestEvaluateReplicates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 16, 16

	res, err := Evaluate(context.Background(), cfg, 6, 3, 11)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Steps)
	assert.Equal(t, 3, res.Replicates)
	assert.GreaterOrEqual(t, res.Cover, 0.0)
	assert.LessOrEqual(t, res.Cover, 1.0)

	again, err := Evaluate(context.Background(), cfg, 6, 3, 11)
	require.NoError(t, err)
	assert.Equal(t, res, again, "evaluation is reproducible")

	single, err := Evaluate(context.Background(), cfg, 6, 1, 11)
	require.NoError(t, err)
	assert.InDelta(t, float64(single.Census.TotalVegetated)/256, single.Cover, 1e-12)
}

func TestParameterSweepImproves(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 12, 12

	sc := SweepConfig{Steps: 4, Replicates: 2, Passes: 1, Workers: 2, Seed: 3, Target: 1}
	params, best, records, err := ParameterSweep(context.Background(), cfg, sc)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "baseline", records[0].Parameter)
	assert.GreaterOrEqual(t, best.Cover, records[0].Result.Cover)
	assert.Equal(t, records[len(records)-1].Params, params)
}
