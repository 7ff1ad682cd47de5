//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// HUD renders the status panel to the right of the simulation view.
type HUD struct {
	width      int
	panel      *ebiten.Image
	lastHeight int
}

// NewHUD constructs a HUD with the given panel width.
func NewHUD(width int) *HUD {
	if width <= 0 {
		return nil
	}
	return &HUD{width: width}
}

// Width is the horizontal space the panel takes up.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

// Draw paints the panel for s at offsetX, height pixels tall.
func (h *HUD) Draw(screen *ebiten.Image, s Status, offsetX, height int) {
	if h == nil || height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for i, line := range s.Lines() {
		if y > height-footerHeight {
			break
		}
		c := textColor
		if i == 0 {
			c = headerColor
		}
		text.Draw(h.panel, line, face, panelPadding, y, c)
		y += lineHeight
	}
	text.Draw(h.panel, KeyHelp, face, panelPadding, height-panelPadding, dimColor)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

var (
	panelColor  = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	headerColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	textColor   = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimColor    = color.RGBA{R: 160, G: 160, B: 170, A: 255}
)

const (
	panelPadding   = 12
	lineHeight     = 16
	headerBaseline = 18
	footerHeight   = 32
)
