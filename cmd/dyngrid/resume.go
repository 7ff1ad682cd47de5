package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dyngrid/internal/telemetry"
	"dyngrid/pkg/engine"
	"dyngrid/pkg/output"
)

type resumeOptions struct {
	store     string
	run       string
	frames    int
	fps       float64
	telemetry telemetry.Config
}

func newResumeCmd() *cobra.Command {
	o := resumeOptions{telemetry: telemetry.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue a stored run from its last frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return resumeRun(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), o)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.store, "store", "", "badger directory holding the run")
	fs.StringVar(&o.run, "run", "", "run id (default: the latest run)")
	fs.IntVarP(&o.frames, "frames", "n", 0, fmt.Sprintf("frames to add (default %d)", engine.DefaultResumeFrames))
	fs.Float64Var(&o.fps, "fps", 0, "frames per second (0 keeps the recorded pacing)")
	fs.StringVar(&o.telemetry.Level, "log-level", o.telemetry.Level, "log level: debug, info, warn or error")
	fs.StringVar(&o.telemetry.Format, "log-format", o.telemetry.Format, "log format: text or json")
	fs.StringVar(&o.telemetry.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func resumeRun(ctx context.Context, stdout, stderr io.Writer, o resumeOptions) error {
	log, done, err := setup(ctx, stderr, o.telemetry)
	if err != nil {
		return err
	}
	defer done()

	out, err := output.OpenStore[float64](output.StoreConfig{Path: o.store, Run: o.run, FPS: o.fps, Logger: log})
	if err != nil {
		return err
	}
	meta := out.Meta()
	cfg := fromLabels(meta.Labels)
	if cfg.Model == "" {
		return errors.Join(fmt.Errorf("run %s does not name its model", meta.Run), out.Close())
	}
	m, err := buildModel(cfg)
	if err != nil {
		return errors.Join(err, out.Close())
	}

	st, err := engine.Resume(ctx, out, m.Rules, o.frames,
		engine.WithSeed(cfg.Seed),
		engine.WithReplicates(cfg.Replicates),
		engine.WithRunID(meta.Run),
		engine.WithLogger(log.With("model", m.Name)),
	)
	if err := errors.Join(finished(log, err), out.Close()); err != nil {
		return err
	}
	if st == nil {
		return nil
	}
	fmt.Fprintf(stdout, "run %s: resumed from t=%d to t=%d\n", meta.Run, meta.Last, st.Time)
	return nil
}
