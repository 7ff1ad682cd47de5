package ecology

import (
	"math"
	"math/rand/v2"

	"dyngrid/internal/core"
	prng "dyngrid/pkg/core"
	"dyngrid/pkg/engine"
)

// Cell values. Burning cells count their remaining steps above burnBase.
const (
	Dirt   = 0
	Grass  = 1
	Shrub  = 2
	Tree   = 3
	ignite = 4
	Rock   = 5

	burnBase = 10
)

// Vegetated reports whether v holds grass, shrub or tree.
func Vegetated(v float64) bool { return v >= Grass && v <= Tree }

// Burning reports whether v is a burning cell.
func Burning(v float64) bool { return v > burnBase }

func isGrass(v float64) bool { return v == Grass }
func isShrub(v float64) bool { return v == Shrub }

// moore splits the Moore neighborhood into orthogonal and diagonal layers so
// fire can spread more easily across edges than across corners.
var moore = engine.Layered{Layers: [][][]int{
	{{-1, 0}, {0, -1}, {0, 1}, {1, 0}},
	{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}},
}}

// Succession grows vegetation from neighbor counts and catches fire from
// burning neighbors.
type Succession struct {
	p Params
}

func (Succession) Name() string                      { return "succession" }
func (Succession) Neighborhood() engine.Neighborhood { return moore }
func (Succession) Radius() int                       { return 1 }
func (Succession) Volatile() bool                    { return true }

func (s Succession) ApplyNeighborhood(ctx *engine.Context, w *engine.Window[float64], state float64, _ engine.Index) float64 {
	if !Vegetated(state) && state != Dirt {
		return state
	}
	if Vegetated(state) && s.p.FireSpreadChance > 0 {
		orth := w.CountLayer(0, Burning)
		diag := w.CountLayer(1, Burning)
		if orth+diag > 0 && ctx.Rand.Float64() < igniteChance(s.p.FireSpreadChance, orth, diag) {
			return ignite
		}
	}

	switch state {
	case Dirt:
		if w.Count(isGrass) >= s.p.GrassNeighborThreshold && ctx.Rand.Float64() < s.p.GrassSpreadChance {
			return Grass
		}
	case Grass:
		if w.Count(isGrass) >= s.p.ShrubNeighborThreshold && ctx.Rand.Float64() < s.p.ShrubGrowthChance {
			return Shrub
		}
	case Shrub:
		if w.Count(isShrub) >= s.p.TreeNeighborThreshold && ctx.Rand.Float64() < s.p.TreeGrowthChance {
			return Tree
		}
	}
	return state
}

// igniteChance is the probability that at least one burning neighbor lights
// the cell. Diagonal neighbors spread at half the rate.
func igniteChance(spread float64, orth, diag int) float64 {
	miss := math.Pow(1-spread, float64(orth)) * math.Pow(1-spread/2, float64(diag))
	return 1 - miss
}

// Fire lights ignited cells, burns them down to dirt and strikes vegetation
// with lightning. It runs fused after Succession.
type Fire struct {
	p Params
}

func (Fire) Name() string   { return "fire" }
func (Fire) Volatile() bool { return true }

func (f Fire) ApplyCell(ctx *engine.Context, state float64, _ engine.Index) float64 {
	switch {
	case state == ignite:
		return burnBase + float64(max(f.p.BurnTTL, 1))
	case Burning(state):
		if state-1 > burnBase {
			return state - 1
		}
		return Dirt
	case Vegetated(state) && f.p.LightningChance > 0 && ctx.Rand.Float64() < f.p.LightningChance:
		return burnBase + float64(max(f.p.BurnTTL, 1))
	}
	return state
}

// SeedDispersal lets trees drop seeds within SeedRadius. A seed landing on
// dirt becomes grass.
type SeedDispersal struct {
	p Params
}

func (SeedDispersal) Name() string   { return "seed_dispersal" }
func (SeedDispersal) Volatile() bool { return true }

func (d SeedDispersal) Radius() int { return d.p.SeedRadius }

func (d SeedDispersal) ApplyPartial(ctx *engine.Context, p *engine.Partial[float64], state float64, idx engine.Index) {
	if state != Tree || ctx.Rand.Float64() >= d.p.SeedChance {
		return
	}
	r := d.p.SeedRadius
	y := idx[0] + ctx.Rand.IntN(2*r+1) - r
	x := idx[1] + ctx.Rand.IntN(2*r+1) - r
	if v, ok := p.Dest(y, x); ok && v == Dirt {
		p.Set(Grass, y, x)
	}
}

// Rules assembles the ecology ruleset: succession and fire fused into one
// pass, then seed dispersal when enabled.
func Rules(c Config) (*engine.Ruleset[float64], error) {
	chain, err := engine.Chain(
		engine.Neighbors[float64](Succession{p: c.Params}),
		engine.Cell[float64](Fire{p: c.Params}),
	)
	if err != nil {
		return nil, err
	}
	rules := []engine.Rule[float64]{chain}
	if c.Params.SeedRadius > 0 && c.Params.SeedChance > 0 {
		rules = append(rules, engine.PartialNeighbors[float64](SeedDispersal{p: c.Params}))
	}
	var opts []engine.RulesetOption
	if c.Wrap {
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	}
	return engine.NewRuleset(rules, opts...)
}

// Seed builds the starting landscape: scattered rock and a few grass patches.
func Seed(c Config, seed uint64) *engine.Array[float64] {
	a := engine.NewArray[float64](c.Height, c.Width)
	rng := prng.NewRNG(int64(seed)).Source()
	sprinkleRock(a, c.Params.RockChance, rng)
	seedGrassPatches(a, c.Params, rng)
	return a
}

func sprinkleRock(a *engine.Array[float64], chance float64, rng *rand.Rand) {
	if chance <= 0 {
		return
	}
	cells := a.Cells()
	for i := range cells {
		if rng.Float64() < chance {
			cells[i] = Rock
		}
	}
}

func seedGrassPatches(a *engine.Array[float64], p Params, rng *rand.Rand) {
	count := p.GrassPatchCount
	if count <= 0 {
		return
	}
	minR := max(p.GrassPatchRadiusMin, 0)
	maxR := max(p.GrassPatchRadiusMax, minR)
	den := p.GrassPatchDensity
	if den <= 0 {
		den = 1
	}
	shape := a.Shape()
	h, w := shape[0], shape[1]
	for range count {
		x := rng.IntN(w)
		y := rng.IntN(h)
		radius := minR
		if maxR > minR {
			radius += rng.IntN(maxR - minR + 1)
		}
		r2 := radius * radius
		for dy := -radius; dy <= radius; dy++ {
			yp := y + dy
			if yp < 0 || yp >= h {
				continue
			}
			for dx := -radius; dx <= radius; dx++ {
				xp := x + dx
				if xp < 0 || xp >= w || dx*dx+dy*dy > r2 {
					continue
				}
				if rng.Float64() > den {
					continue
				}
				if a.At(yp, xp) == Dirt {
					a.Set(Grass, yp, xp)
				}
			}
		}
	}
}

// Model builds the ecology model from a config.
func Model(c Config) (*core.Model, error) {
	rs, err := Rules(c)
	if err != nil {
		return nil, err
	}
	return &core.Model{
		Name:   "ecology",
		Shape:  []int{c.Height, c.Width},
		Rules:  rs,
		Init:   func(seed uint64) *engine.Array[float64] { return Seed(c, seed) },
		Max:    burnBase + float64(max(c.Params.BurnTTL, 1)),
		Color:  Color,
		Params: c.Parameters(),
	}, nil
}

func init() {
	core.Register("ecology", func(cfg map[string]string) (*core.Model, error) {
		return Model(FromMap(cfg))
	})
}
