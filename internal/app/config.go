package app

import "github.com/spf13/pflag"

// Config represents the command-line parameters for the viewer.
type Config struct {
	Model  string
	Params map[string]string
	Scale  int
	TPS    int
	Seed   uint64
	Frames int
	Panel  int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Model: "life", Params: map[string]string{}, Scale: 3, TPS: 60, Seed: 42, Panel: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Model, "model", "m", c.Model, "model to run")
	fs.StringToStringVarP(&c.Params, "param", "p", c.Params, "model parameter as key=value (repeatable)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.Frames, "frames", c.Frames, "stop after this many frames (0 runs until closed)")
	fs.IntVar(&c.Panel, "panel", c.Panel, "width of the parameter panel in pixels (0 hides it)")
}
