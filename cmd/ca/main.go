//go:build ebiten

package main

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"

	"dyngrid/internal/app"
	"dyngrid/internal/core"
	_ "dyngrid/internal/sims/briansbrain"
	_ "dyngrid/internal/sims/ecology"
	_ "dyngrid/internal/sims/elementary"
	_ "dyngrid/internal/sims/life"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(pflag.CommandLine)
	pflag.Parse()

	m, err := core.Build(cfg.Model, cfg.Params)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	game := app.New(m, *cfg, logger)
	defer game.Close()
	w, h := game.Layout(0, 0)

	ebiten.SetWindowTitle("dyngrid: " + m.Name)
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
