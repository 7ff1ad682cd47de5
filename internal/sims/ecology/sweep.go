package ecology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"dyngrid/pkg/engine"
)

// Cover reduces replicate frames to the fraction of replicates in which each
// cell is vegetated.
func Cover(dst []float64, frames [][]float64) {
	if len(frames) == 0 {
		return
	}
	n := float64(len(frames))
	for i := range dst {
		var hits float64
		for _, f := range frames {
			if Vegetated(f[i]) {
				hits++
			}
		}
		dst[i] = hits / n
	}
}

// SweepResult captures the outcome of one evaluated configuration.
type SweepResult struct {
	// Cover is the mean vegetated fraction at the final step across all
	// replicates.
	Cover float64
	// Census describes the final frame of the first replicate.
	Census     Metrics
	Steps      int
	Replicates int
}

// SweepRecord documents a single improvement encountered while exploring the
// parameter space.
type SweepRecord struct {
	Pass      int
	Parameter string
	Value     string
	Result    SweepResult
	Params    Params
}

// SweepConfig controls ParameterSweep.
type SweepConfig struct {
	Steps      int
	Replicates int
	Passes     int
	Workers    int
	Seed       uint64
	// Target is the vegetated fraction the sweep steers towards.
	Target float64
}

// lastFrame is an output that keeps only the latest frame.
type lastFrame struct {
	n     int
	t     int
	frame *engine.Array[float64]
}

func (o *lastFrame) Len() int     { return o.n }
func (o *lastFrame) FPS() float64 { return 0 }

func (o *lastFrame) Store(t int, f *engine.Array[float64]) error {
	o.t, o.frame = t, f
	return nil
}

func (o *lastFrame) Last() (int, *engine.Array[float64], bool) {
	return o.t, o.frame, o.frame != nil
}

// Evaluate runs cfg for steps steps over the given number of replicates and
// reports the final vegetation cover.
func Evaluate(ctx context.Context, cfg Config, steps, replicates int, seed uint64) (SweepResult, error) {
	if steps <= 0 {
		return SweepResult{}, nil
	}
	m, err := Model(cfg)
	if err != nil {
		return SweepResult{}, err
	}
	out := &lastFrame{n: steps}
	st, err := engine.Run(ctx, out, m.Rules,
		engine.WithInit(m.Init(seed)),
		engine.WithReplicates(replicates),
		engine.WithSeed(seed),
		engine.WithReducer[float64](Cover),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{Steps: st.Time, Replicates: st.Replicates, Census: Census(st.Grid(0).Frame())}
	if st.Replicates > 1 && st.Time > 1 {
		// Frames past the first are reduced by Cover.
		res.Cover = mean(out.frame.Cells())
	} else {
		res.Cover = float64(res.Census.TotalVegetated) / float64(out.frame.Len())
	}
	return res, nil
}

func mean(cells []float64) float64 {
	if len(cells) == 0 {
		return 0
	}
	var s float64
	for _, v := range cells {
		s += v
	}
	return s / float64(len(cells))
}

type floatSpec struct {
	name   string
	values []float64
	getter func(Params) float64
	setter func(*Params, float64)
}

type intSpec struct {
	name   string
	values []int
	getter func(Params) int
	setter func(*Params, int)
}

var floatSpecs = []floatSpec{
	{
		name:   "fire_spread_chance",
		values: []float64{0.1, 0.2, 0.3, 0.45, 0.6},
		getter: func(p Params) float64 { return p.FireSpreadChance },
		setter: func(p *Params, v float64) { p.FireSpreadChance = v },
	},
	{
		name:   "lightning_chance",
		values: []float64{0, 0.00001, 0.00002, 0.0001, 0.0005},
		getter: func(p Params) float64 { return p.LightningChance },
		setter: func(p *Params, v float64) { p.LightningChance = v },
	},
	{
		name:   "grass_spread_chance",
		values: []float64{0.1, 0.25, 0.4},
		getter: func(p Params) float64 { return p.GrassSpreadChance },
		setter: func(p *Params, v float64) { p.GrassSpreadChance = v },
	},
	{
		name:   "seed_chance",
		values: []float64{0, 0.02, 0.05, 0.1},
		getter: func(p Params) float64 { return p.SeedChance },
		setter: func(p *Params, v float64) { p.SeedChance = v },
	},
}

var intSpecs = []intSpec{
	{
		name:   "burn_ttl",
		values: []int{1, 2, 3, 5},
		getter: func(p Params) int { return p.BurnTTL },
		setter: func(p *Params, v int) { p.BurnTTL = v },
	},
	{
		name:   "seed_radius",
		values: []int{1, 2, 3},
		getter: func(p Params) int { return p.SeedRadius },
		setter: func(p *Params, v int) { p.SeedRadius = v },
	},
}

// candidate is one parameter value to evaluate.
type candidate struct {
	name   string
	value  string
	params Params
}

// ParameterSweep runs a coordinate descent over the fire and dispersal
// parameters, keeping changes that bring the final cover closer to Target.
func ParameterSweep(ctx context.Context, base Config, sc SweepConfig) (Params, SweepResult, []SweepRecord, error) {
	if sc.Steps <= 0 {
		sc.Steps = 200
	}
	sc.Passes = max(sc.Passes, 1)
	sc.Workers = max(sc.Workers, 1)
	sc.Replicates = max(sc.Replicates, 1)

	currentParams := base.Params
	currentResult, err := Evaluate(ctx, base, sc.Steps, sc.Replicates, sc.Seed)
	if err != nil {
		return currentParams, currentResult, nil, err
	}
	records := []SweepRecord{{Parameter: "baseline", Result: currentResult, Params: currentParams}}

	for pass := 1; pass <= sc.Passes; pass++ {
		improved := false
		for _, cands := range paramCandidates(currentParams) {
			results, err := evaluateAll(ctx, base, cands, sc)
			if err != nil {
				return currentParams, currentResult, records, err
			}
			for i, res := range results {
				if !closer(res, currentResult, sc.Target) {
					continue
				}
				currentParams = cands[i].params
				currentResult = res
				improved = true
				records = append(records, SweepRecord{
					Pass:      pass,
					Parameter: cands[i].name,
					Value:     cands[i].value,
					Result:    res,
					Params:    currentParams,
				})
			}
		}
		if !improved {
			break
		}
	}
	return currentParams, currentResult, records, nil
}

// paramCandidates lists, per parameter, the values that differ from params.
func paramCandidates(params Params) [][]candidate {
	var out [][]candidate
	for _, spec := range intSpecs {
		var cands []candidate
		for _, v := range spec.values {
			if v == spec.getter(params) {
				continue
			}
			p := params
			spec.setter(&p, v)
			cands = append(cands, candidate{name: spec.name, value: strconv.Itoa(v), params: p})
		}
		out = append(out, cands)
	}
	for _, spec := range floatSpecs {
		var cands []candidate
		for _, v := range spec.values {
			if almostEqual(v, spec.getter(params)) {
				continue
			}
			p := params
			spec.setter(&p, v)
			cands = append(cands, candidate{name: spec.name, value: strconv.FormatFloat(v, 'g', -1, 64), params: p})
		}
		out = append(out, cands)
	}
	return out
}

// evaluateAll runs every candidate on a bounded pool of workers.
func evaluateAll(ctx context.Context, base Config, cands []candidate, sc SweepConfig) ([]SweepResult, error) {
	results := make([]SweepResult, len(cands))
	errs := make([]error, len(cands))
	var wg sync.WaitGroup
	sem := make(chan struct{}, sc.Workers)

	for idx, c := range cands {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p Params) {
			defer wg.Done()
			cfg := base
			cfg.Params = p
			res, err := Evaluate(ctx, cfg, sc.Steps, sc.Replicates, sc.Seed)
			if err != nil {
				errs[i] = fmt.Errorf("evaluate %s=%s: %w", cands[i].name, cands[i].value, err)
			}
			results[i] = res
			<-sem
		}(idx, c.params)
	}

	wg.Wait()
	return results, errors.Join(errs...)
}

func closer(a, b SweepResult, target float64) bool {
	return math.Abs(a.Cover-target) < math.Abs(b.Cover-target)-1e-9
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps
}
