package core

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"dyngrid/pkg/engine"
)

// ErrUnknownModel is returned by Build for names nobody registered.
var ErrUnknownModel = errors.New("unknown model")

// Model is a configured simulation: its rules, the array it starts from and
// how its cells should be shown.
type Model struct {
	Name  string
	Shape []int
	Rules *engine.Ruleset[float64]

	// Init builds the initial array. Deterministic for a given seed.
	Init func(seed uint64) *engine.Array[float64]

	// Max is the largest cell value, used to scale greyscale output.
	Max float64

	// Color maps a cell value to a display color. Nil means greyscale.
	Color func(v float64) color.RGBA

	// History is how many past frames of a rank-1 model are stacked into
	// rows for display.
	History int

	Params ParameterSnapshot
}

// Parameters returns the model's parameter snapshot.
func (m *Model) Parameters() ParameterSnapshot { return m.Params }

// Factory constructs a Model using an optional configuration map.
type Factory func(cfg map[string]string) (*Model, error)

var models = map[string]Factory{}

// Register adds a model factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	models[name] = f
}

// Models exposes the registry of available model factories.
func Models() map[string]Factory {
	return models
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build looks up name and constructs the model from cfg.
func Build(name string, cfg map[string]string) (*Model, error) {
	f, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
	m, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return m, nil
}

// Reconfigure rebuilds the model's ruleset with opts layered over its
// current overflow, sparseness and block size.
func (m *Model) Reconfigure(opts ...engine.RulesetOption) error {
	if len(opts) == 0 {
		return nil
	}
	base := []engine.RulesetOption{
		engine.WithOverflow(m.Rules.Overflow()),
		engine.WithBlockSize(m.Rules.BlockSize()),
	}
	if m.Rules.Sparse() {
		base = append(base, engine.WithSparse())
	}
	if init := m.Rules.Init(); init != nil {
		base = append(base, engine.WithDefaultInit(init))
	}
	rs, err := engine.NewRuleset(m.Rules.Rules(), append(base, opts...)...)
	if err != nil {
		return fmt.Errorf("reconfigure %s: %w", m.Name, err)
	}
	m.Rules = rs
	return nil
}
