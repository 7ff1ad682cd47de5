package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"dyngrid/pkg/core"
	"dyngrid/pkg/engine"
)

// Glyphs selects how cells are packed into terminal characters.
type Glyphs int

const (
	// Block draws two rows per character with half blocks.
	Block Glyphs = iota
	// Braille draws a 4x2 cell patch per character.
	Braille
)

// DefaultCutoff is the normalized value at or above which a cell is drawn.
const DefaultCutoff = 0.5

const cursorHome = "\x1b[H"

// REPLOption configures a REPLOutput.
type REPLOption func(*replConfig)

type replConfig struct {
	glyphs   Glyphs
	cutoff   float64
	min, max float64
	fps      float64
	refresh  float64
	keep     bool
	color    lipgloss.TerminalColor
}

// WithGlyphs picks block or braille rendering.
func WithGlyphs(g Glyphs) REPLOption { return func(c *replConfig) { c.glyphs = g } }

// WithCutoff sets the normalized threshold for a lit cell.
func WithCutoff(v float64) REPLOption { return func(c *replConfig) { c.cutoff = v } }

// WithRange sets the values mapped to 0 and 1 before the cutoff applies.
func WithRange(lo, hi float64) REPLOption {
	return func(c *replConfig) { c.min, c.max = lo, hi }
}

// WithPacing sets the FPS hint the engine paces the run at.
func WithPacing(fps float64) REPLOption { return func(c *replConfig) { c.fps = fps } }

// WithRefresh limits redraws to fps frames per second. Frames arriving
// faster are stored but not drawn.
func WithRefresh(fps float64) REPLOption { return func(c *replConfig) { c.refresh = fps } }

// WithStorage keeps every frame in memory as well as printing it.
func WithStorage() REPLOption { return func(c *replConfig) { c.keep = true } }

// WithColor sets the foreground color of lit cells.
func WithColor(col lipgloss.TerminalColor) REPLOption {
	return func(c *replConfig) { c.color = col }
}

// REPLOutput prints frames to a terminal.
type REPLOutput[T engine.Number] struct {
	mu       sync.Mutex
	w        io.Writer
	cfg      replConfig
	style    lipgloss.Style
	terminal bool
	throttle *core.FixedStep
	frames   *ArrayOutput[T]
	lastT    int
	last     *engine.Array[T]
	drawn    int
}

// NewREPLOutput prints up to n frames to w.
func NewREPLOutput[T engine.Number](w io.Writer, n int, opts ...REPLOption) *REPLOutput[T] {
	cfg := replConfig{glyphs: Block, cutoff: DefaultCutoff, max: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.max == cfg.min {
		cfg.max = cfg.min + 1
	}
	style := lipgloss.NewRenderer(w).NewStyle()
	if cfg.color != nil {
		style = style.Foreground(cfg.color)
	}
	o := &REPLOutput[T]{
		w:        w,
		cfg:      cfg,
		style:    style,
		terminal: isTerminal(w),
		frames:   NewArrayOutput[T](n),
	}
	if cfg.refresh > 0 {
		o.throttle = core.NewFixedStep(cfg.refresh)
	}
	return o
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (o *REPLOutput[T]) Len() int     { return o.frames.Len() }
func (o *REPLOutput[T]) FPS() float64 { return o.cfg.fps }

// Store prints frame unless the refresh limit says it is too early.
func (o *REPLOutput[T]) Store(t int, frame *engine.Array[T]) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cfg.keep {
		if err := o.frames.Store(t, frame); err != nil {
			return err
		}
	}
	o.lastT, o.last = t, frame
	if o.throttle != nil && !o.throttle.ShouldStep() {
		return nil
	}
	return o.draw(t, frame)
}

// Flush draws the most recent frame if it was skipped by the refresh limit.
func (o *REPLOutput[T]) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil || o.drawn == o.lastT {
		return nil
	}
	return o.draw(o.lastT, o.last)
}

func (o *REPLOutput[T]) Last() (int, *engine.Array[T], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return 0, nil, false
	}
	return o.lastT, o.last, true
}

// Frames returns the kept frames. Empty unless WithStorage was given.
func (o *REPLOutput[T]) Frames() []*engine.Array[T] { return o.frames.Frames() }

func (o *REPLOutput[T]) draw(t int, frame *engine.Array[T]) error {
	var b strings.Builder
	if o.terminal {
		b.WriteString(cursorHome)
	}
	fmt.Fprintf(&b, "t=%d\n", t)
	b.WriteString(o.style.Render(Render(frame, o.cfg.glyphs, o.lit)))
	b.WriteByte('\n')
	if !o.terminal {
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(o.w, b.String()); err != nil {
		return fmt.Errorf("output: print frame %d: %w", t, err)
	}
	o.drawn = t
	return nil
}

func (o *REPLOutput[T]) lit(v float64) bool {
	return (v-o.cfg.min)/(o.cfg.max-o.cfg.min) >= o.cfg.cutoff
}

// Render draws frame as text. Leading dimensions are stacked as rows; the
// last dimension runs along each line.
func Render[T engine.Number](frame *engine.Array[T], g Glyphs, lit func(float64) bool) string {
	shape := frame.Shape()
	cols := shape[len(shape)-1]
	rows := frame.Len() / cols
	cells := frame.Cells()
	on := func(r, c int) bool {
		if r >= rows || c >= cols {
			return false
		}
		return lit(float64(cells[r*cols+c]))
	}

	var b strings.Builder
	switch g {
	case Braille:
		for r := 0; r < rows; r += 4 {
			if r > 0 {
				b.WriteByte('\n')
			}
			for c := 0; c < cols; c += 2 {
				b.WriteRune(brailleRune(r, c, on))
			}
		}
	default:
		for r := 0; r < rows; r += 2 {
			if r > 0 {
				b.WriteByte('\n')
			}
			for c := 0; c < cols; c++ {
				b.WriteRune(blockRune(on(r, c), on(r+1, c)))
			}
		}
	}
	return b.String()
}

func blockRune(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}

// brailleDots maps a (row, col) position in a 4x2 patch to its dot bit.
var brailleDots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func brailleRune(r, c int, on func(r, c int) bool) rune {
	ch := rune(0x2800)
	for dr := range 4 {
		for dc := range 2 {
			if on(r+dr, c+dc) {
				ch |= brailleDots[dr][dc]
			}
		}
	}
	return ch
}
