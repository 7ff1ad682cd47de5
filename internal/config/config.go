// Package config holds the run configuration shared by the dyngrid
// commands: which model to run, how, and where its frames go.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"dyngrid/internal/telemetry"
	"dyngrid/pkg/engine"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Output kinds.
const (
	OutputREPL  = "repl"
	OutputArray = "array"
	OutputStore = "store"
)

// Config is one run of one model.
type Config struct {
	Model      string            `yaml:"model"`
	Params     map[string]string `yaml:"params"`
	Frames     int               `yaml:"frames"`
	FPS        float64           `yaml:"fps"`
	Replicates int               `yaml:"replicates"`
	Seed       uint64            `yaml:"seed"`
	// Overflow is wrap or remove. Empty keeps the model's own policy.
	Overflow string `yaml:"overflow"`
	Sparse   bool   `yaml:"sparse"`

	Output    OutputConfig     `yaml:"output"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// OutputConfig selects and tunes the frame sink.
type OutputConfig struct {
	Kind   string  `yaml:"kind"`
	Glyphs string  `yaml:"glyphs"`
	Cutoff float64 `yaml:"cutoff"`
	Color  string  `yaml:"color"`
	Store  string  `yaml:"store"`
	Run    string  `yaml:"run"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Model:      "life",
		Params:     map[string]string{},
		Frames:     100,
		Replicates: 1,
		Seed:       42,
		Output: OutputConfig{
			Kind:   OutputREPL,
			Glyphs: "block",
			Cutoff: 0.5,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	c, err := Read(path)
	if err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Read is Load without the validation, for callers that layer flags on top
// first.
func Read(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	loadFromEnv(&c)
	return c, nil
}

func loadFromEnv(c *Config) {
	if v := os.Getenv("DYNGRID_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("DYNGRID_SEED"); v != "" {
		if s, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = s
		}
	}
	if v := os.Getenv("DYNGRID_STORE"); v != "" {
		c.Output.Store = v
	}
	if v := os.Getenv("DYNGRID_LOG_LEVEL"); v != "" {
		c.Telemetry.Level = v
	}
	if v := os.Getenv("DYNGRID_METRICS_ADDR"); v != "" {
		c.Telemetry.MetricsAddr = v
	}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Model == "" {
		bad("model is required")
	}
	if c.Frames < 0 {
		bad("frames must be >= 0, got %d", c.Frames)
	}
	if c.FPS < 0 {
		bad("fps must be >= 0, got %g", c.FPS)
	}
	if c.Replicates < 1 {
		bad("replicates must be >= 1, got %d", c.Replicates)
	}
	switch c.Overflow {
	case "", "wrap", "remove":
	default:
		bad("overflow must be wrap or remove, got %q", c.Overflow)
	}
	switch c.Output.Kind {
	case OutputREPL, OutputArray:
	case OutputStore:
		if c.Output.Store == "" {
			bad("output.store is required for the store output")
		}
	default:
		bad("output.kind must be repl, array or store, got %q", c.Output.Kind)
	}
	switch c.Output.Glyphs {
	case "", "block", "braille":
	default:
		bad("output.glyphs must be block or braille, got %q", c.Output.Glyphs)
	}
	if c.Output.Cutoff < 0 || c.Output.Cutoff > 1 {
		bad("output.cutoff must be between 0 and 1, got %g", c.Output.Cutoff)
	}
	return errors.Join(errs...)
}

// RulesetOptions returns the engine options that override a model's own
// ruleset, if any.
func (c Config) RulesetOptions() []engine.RulesetOption {
	var opts []engine.RulesetOption
	switch c.Overflow {
	case "wrap":
		opts = append(opts, engine.WithOverflow(engine.WrapOverflow{}))
	case "remove":
		opts = append(opts, engine.WithOverflow(engine.RemoveOverflow{}))
	}
	if c.Sparse {
		opts = append(opts, engine.WithSparse())
	}
	return opts
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Model, "model", "m", c.Model, "model to run")
	fs.StringToStringVarP(&c.Params, "param", "p", c.Params, "model parameter as key=value (repeatable)")
	fs.IntVarP(&c.Frames, "frames", "n", c.Frames, "number of frames, including the initial one")
	fs.Float64Var(&c.FPS, "fps", c.FPS, "frames per second (0 runs unpaced)")
	fs.IntVarP(&c.Replicates, "replicates", "r", c.Replicates, "independent replicates reduced into each frame")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.StringVar(&c.Overflow, "overflow", c.Overflow, "edge policy: wrap or remove (default: the model's)")
	fs.BoolVar(&c.Sparse, "sparse", c.Sparse, "skip blocks that did not change")
	fs.StringVarP(&c.Output.Kind, "output", "o", c.Output.Kind, "frame sink: repl, array or store")
	fs.StringVar(&c.Output.Glyphs, "glyphs", c.Output.Glyphs, "repl glyphs: block or braille")
	fs.Float64Var(&c.Output.Cutoff, "cutoff", c.Output.Cutoff, "repl cutoff between dark and lit cells")
	fs.StringVar(&c.Output.Color, "color", c.Output.Color, "repl foreground color")
	fs.StringVar(&c.Output.Store, "store", c.Output.Store, "badger directory for the store output")
	fs.StringVar(&c.Output.Run, "run", c.Output.Run, "run id inside the store")
	fs.StringVar(&c.Telemetry.Level, "log-level", c.Telemetry.Level, "log level: debug, info, warn or error")
	fs.StringVar(&c.Telemetry.Format, "log-format", c.Telemetry.Format, "log format: text or json")
	fs.StringVar(&c.Telemetry.MetricsAddr, "metrics-addr", c.Telemetry.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&c.Telemetry.Traces, "traces", c.Telemetry.Traces, "trace exporter: stdout or none")
}

// Overlay copies into c the fields whose flags were set on fs, taking the
// values from flags, the config fs is bound to.
func (c *Config) Overlay(fs *pflag.FlagSet, flags Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "model":
			c.Model = flags.Model
		case "param":
			if c.Params == nil {
				c.Params = map[string]string{}
			}
			for k, v := range flags.Params {
				c.Params[k] = v
			}
		case "frames":
			c.Frames = flags.Frames
		case "fps":
			c.FPS = flags.FPS
		case "replicates":
			c.Replicates = flags.Replicates
		case "seed":
			c.Seed = flags.Seed
		case "overflow":
			c.Overflow = flags.Overflow
		case "sparse":
			c.Sparse = flags.Sparse
		case "output":
			c.Output.Kind = flags.Output.Kind
		case "glyphs":
			c.Output.Glyphs = flags.Output.Glyphs
		case "cutoff":
			c.Output.Cutoff = flags.Output.Cutoff
		case "color":
			c.Output.Color = flags.Output.Color
		case "store":
			c.Output.Store = flags.Output.Store
		case "run":
			c.Output.Run = flags.Output.Run
		case "log-level":
			c.Telemetry.Level = flags.Telemetry.Level
		case "log-format":
			c.Telemetry.Format = flags.Telemetry.Format
		case "metrics-addr":
			c.Telemetry.MetricsAddr = flags.Telemetry.MetricsAddr
		case "traces":
			c.Telemetry.Traces = flags.Telemetry.Traces
		}
	})
}
