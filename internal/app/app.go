//go:build ebiten

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"dyngrid/internal/core"
	"dyngrid/internal/render"
	"dyngrid/internal/ui"
	"dyngrid/pkg/engine"
)

// Game runs a model in the background and shows its frames through the
// ebiten.Game interface.
type Game struct {
	model   *core.Model
	cfg     Config
	log     *slog.Logger
	painter *render.GridPainter
	hud     *ui.HUD

	feed   *Feed
	cancel context.CancelFunc
	done   chan struct{}

	frame   *engine.Array[float64]
	history []*engine.Array[float64]
	t       int

	scale    int
	paused   bool
	tickOnce bool
	seed     uint64
}

// New constructs a Game for the provided model and starts its run.
func New(m *core.Model, cfg Config, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	g := &Game{
		model:   m,
		cfg:     cfg,
		log:     log.With("model", m.Name),
		painter: render.NewGridPainter(displayShape(m), render.For(m)),
		hud:     ui.NewHUD(cfg.Panel),
		scale:   max(cfg.Scale, 1),
	}
	g.Reset(cfg.Seed)
	return g
}

// displayShape is the frame shape the painter sees.
func displayShape(m *core.Model) []int {
	if len(m.Shape) == 1 && m.History > 0 {
		return []int{m.History, m.Shape[0]}
	}
	return m.Shape
}

// Reset restarts the run from a fresh initial array built with seed.
func (g *Game) Reset(seed uint64) {
	g.stop()
	g.seed = seed
	g.tickOnce = false
	g.frame, g.history, g.t = nil, nil, 0

	ctx, cancel := context.WithCancel(context.Background())
	feed := NewFeed(g.cfg.Frames)
	done := make(chan struct{})
	g.feed, g.cancel, g.done = feed, cancel, done

	go func() {
		defer close(done)
		_, err := engine.Run(ctx, feed, g.model.Rules,
			engine.WithInit(g.model.Init(seed)),
			engine.WithSeed(seed),
			engine.WithLogger(g.log),
		)
		if err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled) {
			g.log.Error("run failed", "err", err)
		}
	}()
}

func (g *Game) stop() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.feed.Close()
	<-g.done
	g.cancel = nil
}

// Close stops the background run.
func (g *Game) Close() { g.stop() }

// Update handles per-frame logic and takes the next frame from the run.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(uint64(time.Now().UnixNano()))
	}

	if !g.paused || g.tickOnce {
		if fr, ok := g.feed.Next(); ok {
			g.show(fr)
			g.tickOnce = false
		}
	}
	return nil
}

func (g *Game) show(fr Frame) {
	g.t = fr.T
	if len(g.model.Shape) != 1 || g.model.History <= 0 {
		g.frame = fr.Cells
		return
	}
	g.history = append(g.history, fr.Cells)
	if len(g.history) > g.model.History {
		g.history = g.history[len(g.history)-g.model.History:]
	}
	g.frame = render.Stack(g.history, g.model.History)
}

// Draw renders the latest frame and the status panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.frame, g.scale)
	w, h := g.painter.Size()
	g.hud.Draw(screen, ui.Status{
		Model:  g.model.Name,
		T:      g.t,
		Seed:   g.seed,
		Paused: g.paused,
		Params: g.model.Parameters(),
	}, w*g.scale, h*g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.painter.Size()
	return w*g.scale + g.hud.Width(), h * g.scale
}
