package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dyngrid/internal/config"
	"dyngrid/internal/core"
	"dyngrid/internal/telemetry"
	"dyngrid/pkg/engine"
	"dyngrid/pkg/output"
)

func newRunCmd() *cobra.Command {
	flags := config.Default()
	var path string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a model and print or store its frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read(path)
			if err != nil {
				return err
			}
			cfg.Overlay(cmd.Flags(), flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runModel(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "YAML run configuration; flags override it")
	flags.Bind(cmd.Flags())
	return cmd
}

// setup builds the logger and installs telemetry. The returned func undoes
// the latter.
func setup(ctx context.Context, stderr io.Writer, tc telemetry.Config) (*slog.Logger, func(), error) {
	log, err := telemetry.NewLogger(stderr, tc)
	if err != nil {
		return nil, nil, err
	}
	shutdown, err := telemetry.Setup(ctx, tc, log)
	if err != nil {
		return nil, nil, err
	}
	return log, func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("telemetry shutdown", "err", err)
		}
	}, nil
}

// buildModel constructs the configured model with the ruleset overrides
// applied.
func buildModel(cfg config.Config) (*core.Model, error) {
	m, err := core.Build(cfg.Model, cfg.Params)
	if err != nil {
		return nil, err
	}
	if err := m.Reconfigure(cfg.RulesetOptions()...); err != nil {
		return nil, err
	}
	return m, nil
}

// runLabels records how a stored run was produced so resume and gif can
// rebuild its model.
func runLabels(cfg config.Config) map[string]string {
	labels := map[string]string{
		"model":      cfg.Model,
		"seed":       strconv.FormatUint(cfg.Seed, 10),
		"replicates": strconv.Itoa(cfg.Replicates),
		"overflow":   cfg.Overflow,
		"sparse":     strconv.FormatBool(cfg.Sparse),
	}
	for k, v := range cfg.Params {
		labels["param."+k] = v
	}
	return labels
}

// fromLabels reverses runLabels.
func fromLabels(labels map[string]string) config.Config {
	cfg := config.Default()
	cfg.Model = labels["model"]
	cfg.Overflow = labels["overflow"]
	cfg.Sparse, _ = strconv.ParseBool(labels["sparse"])
	if s, err := strconv.ParseUint(labels["seed"], 10, 64); err == nil {
		cfg.Seed = s
	}
	if r, err := strconv.Atoi(labels["replicates"]); err == nil && r > 0 {
		cfg.Replicates = r
	}
	cfg.Params = map[string]string{}
	for k, v := range labels {
		if key, ok := strings.CutPrefix(k, "param."); ok {
			cfg.Params[key] = v
		}
	}
	return cfg
}

func glyphs(name string) output.Glyphs {
	if name == "braille" {
		return output.Braille
	}
	return output.Block
}

func litAbove(m *core.Model, cutoff float64) func(float64) bool {
	hi := m.Max
	if hi <= 0 {
		hi = 1
	}
	return func(v float64) bool { return v/hi >= cutoff }
}

func runModel(ctx context.Context, stdout, stderr io.Writer, cfg config.Config) error {
	log, done, err := setup(ctx, stderr, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer done()

	m, err := buildModel(cfg)
	if err != nil {
		return err
	}
	opts := []engine.RunOption{
		engine.WithInit(m.Init(cfg.Seed)),
		engine.WithSeed(cfg.Seed),
		engine.WithReplicates(cfg.Replicates),
		engine.WithLogger(log.With("model", m.Name)),
	}
	if cfg.FPS > 0 {
		opts = append(opts, engine.WithFPS(cfg.FPS))
	}

	switch cfg.Output.Kind {
	case config.OutputArray:
		out := output.NewArrayOutput[float64](cfg.Frames).WithFPS(cfg.FPS)
		st, err := engine.Run(ctx, out, m.Rules, opts...)
		if err := finished(log, err); err != nil {
			return err
		}
		t, frame, ok := out.Last()
		if !ok {
			return nil
		}
		fmt.Fprintf(stdout, "t=%d\n%s\n", t, output.Render(frame, glyphs(cfg.Output.Glyphs), litAbove(m, cfg.Output.Cutoff)))
		fmt.Fprintf(stdout, "%d frames, %d replicates\n", len(out.Frames()), st.Replicates)
		return nil

	case config.OutputStore:
		out, err := output.CreateStore[float64](output.StoreConfig{
			Path:   cfg.Output.Store,
			Run:    cfg.Output.Run,
			Frames: cfg.Frames,
			FPS:    cfg.FPS,
			Labels: runLabels(cfg),
			Logger: log,
		})
		if err != nil {
			return err
		}
		_, err = engine.Run(ctx, out, m.Rules, append(opts, engine.WithRunID(out.Run()))...)
		err = errors.Join(finished(log, err), out.Close())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "run %s: %d frames in %s\n", out.Run(), out.Meta().Last, cfg.Output.Store)
		return nil

	default:
		ropts := []output.REPLOption{
			output.WithGlyphs(glyphs(cfg.Output.Glyphs)),
			output.WithCutoff(cfg.Output.Cutoff),
			output.WithRange(0, m.Max),
			output.WithPacing(cfg.FPS),
		}
		if cfg.Output.Color != "" {
			ropts = append(ropts, output.WithColor(lipgloss.Color(cfg.Output.Color)))
		}
		out := output.NewREPLOutput[float64](stdout, cfg.Frames, ropts...)
		_, err := engine.Run(ctx, out, m.Rules, opts...)
		return errors.Join(finished(log, err), out.Flush())
	}
}

// finished treats an interrupted run as a normal stop.
func finished(log *slog.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		log.Info("run interrupted")
		return nil
	}
	return err
}
