package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dyngrid/internal/render"
	"dyngrid/internal/telemetry"
	"dyngrid/pkg/engine"
	"dyngrid/pkg/output"
)

type gifOptions struct {
	store string
	run   string
	out   string
	scale int
	delay int
	every int
}

func newGIFCmd() *cobra.Command {
	o := gifOptions{scale: 2, every: 1}
	cmd := &cobra.Command{
		Use:   "gif",
		Short: "Export a stored run as an animated GIF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(o.out)
			if err != nil {
				return err
			}
			n, err := writeGIF(cmd.Context(), f, cmd.ErrOrStderr(), o)
			if err := errors.Join(err, f.Close()); err != nil {
				os.Remove(o.out)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", n, o.out)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.store, "store", "", "badger directory holding the run")
	fs.StringVar(&o.run, "run", "", "run id (default: the latest run)")
	fs.StringVar(&o.out, "out", "", "GIF file to write")
	fs.IntVar(&o.scale, "scale", o.scale, "pixels per cell")
	fs.IntVar(&o.delay, "delay", 0, "delay between frames in 1/100 s (default: from the run's fps)")
	fs.IntVar(&o.every, "every", o.every, "keep every nth frame")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// writeGIF encodes the run's frames to w and returns how many it wrote.
// Runs that name a known model use its palette; others are drawn in grey.
func writeGIF(ctx context.Context, w io.Writer, stderr io.Writer, o gifOptions) (int, error) {
	log, err := telemetry.NewLogger(stderr, telemetry.Config{Level: "warn"})
	if err != nil {
		return 0, err
	}
	store, err := output.OpenStore[float64](output.StoreConfig{Path: o.store, Run: o.run, Logger: log})
	if err != nil {
		return 0, err
	}
	defer store.Close()
	meta := store.Meta()

	var frames []*engine.Array[float64]
	hi := 0.0
	every := max(o.every, 1)
	i := 0
	err = store.Each(func(_ int, f *engine.Array[float64]) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i%every == 0 {
			frames = append(frames, f)
			for _, v := range f.Cells() {
				hi = max(hi, v)
			}
		}
		i++
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("run %s has no frames", meta.Run)
	}

	palette := render.Grey(hi)
	history := 0
	if cfg := fromLabels(meta.Labels); cfg.Model != "" {
		if m, err := buildModel(cfg); err == nil {
			palette = render.For(m)
			history = m.History
		} else {
			log.Warn("drawing in grey", "model", cfg.Model, "err", err)
		}
	}
	if len(meta.Shape) == 1 {
		frames = stackHistory(frames, history)
	}

	delay := o.delay
	if delay <= 0 {
		delay = 10
		if meta.FPS > 0 {
			delay = max(int(100/meta.FPS), 2)
		}
	}

	pal := render.PaletteFor(frames, palette)
	anim := &gif.GIF{}
	for _, f := range frames {
		img := render.Scale(render.Image(f, palette), o.scale)
		anim.Image = append(anim.Image, render.Paletted(img, pal))
		anim.Delay = append(anim.Delay, delay)
	}
	anim.Config = image.Config{ColorModel: pal, Width: anim.Image[0].Rect.Dx(), Height: anim.Image[0].Rect.Dy()}
	if err := gif.EncodeAll(w, anim); err != nil {
		return 0, fmt.Errorf("encode gif: %w", err)
	}
	return len(frames), nil
}

// stackHistory turns a rank-1 run into one growing space-time picture per
// frame. Zero rows keeps every frame.
func stackHistory(frames []*engine.Array[float64], rows int) []*engine.Array[float64] {
	if rows <= 0 {
		rows = len(frames)
	}
	out := make([]*engine.Array[float64], len(frames))
	for i := range frames {
		out[i] = render.Stack(frames[:i+1], rows)
	}
	return out
}
