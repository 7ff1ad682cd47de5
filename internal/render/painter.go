//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"dyngrid/pkg/engine"
)

// GridPainter keeps a single ebiten image in step with the frames it is given.
type GridPainter struct {
	w, h    int
	img     *ebiten.Image
	buf     []byte
	palette Palette
}

// NewGridPainter allocates a painter for frames of the given shape.
func NewGridPainter(shape []int, p Palette) *GridPainter {
	w, h := Size(shape)
	w, h = max(w, 1), max(h, 1)
	return &GridPainter{
		w:       w,
		h:       h,
		img:     ebiten.NewImage(w, h),
		buf:     make([]byte, 4*w*h),
		palette: p,
	}
}

// Blit uploads frame into the painter image and draws it onto dst.
func (gp *GridPainter) Blit(dst *ebiten.Image, frame *engine.Array[float64], scale int) {
	if frame != nil && frame.Len() == gp.w*gp.h {
		fillRGBA(gp.buf, frame.Cells(), gp.palette)
		gp.img.WritePixels(gp.buf)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
