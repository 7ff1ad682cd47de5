package render

import (
	"image"
	"image/color"
	"image/color/palette"

	xdraw "golang.org/x/image/draw"

	"dyngrid/internal/core"
	"dyngrid/pkg/engine"
)

// Palette maps a cell value to a display color.
type Palette func(v float64) color.RGBA

// Grey scales [0, hi] from black to white. Values outside the range clamp.
func Grey(hi float64) Palette {
	if hi <= 0 {
		hi = 1
	}
	return func(v float64) color.RGBA {
		f := min(max(v/hi, 0), 1)
		l := uint8(f*255 + 0.5)
		return color.RGBA{R: l, G: l, B: l, A: 255}
	}
}

// For returns the model's own palette, or greyscale over [0, Max].
func For(m *core.Model) Palette {
	if m.Color != nil {
		return m.Color
	}
	return Grey(m.Max)
}

// Size returns the pixel dimensions a frame of the given shape is drawn at.
// The last dimension runs across; leading dimensions are stacked downwards.
func Size(shape []int) (w, h int) {
	if len(shape) == 0 {
		return 0, 0
	}
	w, h = shape[len(shape)-1], 1
	for _, n := range shape[:len(shape)-1] {
		h *= n
	}
	return w, h
}

// fillRGBA converts cell values into RGBA pixels in buf.
func fillRGBA(buf []byte, cells []float64, p Palette) {
	for i, v := range cells {
		c := p(v)
		base := i * 4
		buf[base+0] = c.R
		buf[base+1] = c.G
		buf[base+2] = c.B
		buf[base+3] = c.A
	}
}

// Image draws frame into a new RGBA image, one pixel per cell.
func Image(frame *engine.Array[float64], p Palette) *image.RGBA {
	w, h := Size(frame.Shape())
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRGBA(img.Pix, frame.Cells(), p)
	return img
}

// Scale enlarges img by an integer factor without smoothing.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// PaletteFor collects the distinct colors p produces over frames. When there
// are more than 256 it falls back to the web-safe palette.
func PaletteFor(frames []*engine.Array[float64], p Palette) color.Palette {
	seen := map[color.RGBA]struct{}{}
	var pal color.Palette
	for _, f := range frames {
		for _, v := range f.Cells() {
			c := p(v)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == 256 {
				return palette.WebSafe
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	if len(pal) == 0 {
		pal = append(pal, color.RGBA{A: 255})
	}
	return pal
}

// Paletted converts img to the given palette, picking the closest color for
// each pixel.
func Paletted(img image.Image, pal color.Palette) *image.Paletted {
	dst := image.NewPaletted(img.Bounds(), pal)
	xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return dst
}

// Stack builds a display frame for a rank-1 model from its recent history,
// oldest row first. Fewer than rows frames leave the top rows at zero.
func Stack(history []*engine.Array[float64], rows int) *engine.Array[float64] {
	if len(history) == 0 {
		return engine.NewArray[float64](max(rows, 1), 1)
	}
	width := history[0].Len()
	rows = max(rows, 1)
	out := engine.NewArray[float64](rows, width)
	if len(history) > rows {
		history = history[len(history)-rows:]
	}
	top := rows - len(history)
	for i, f := range history {
		copy(out.Cells()[(top+i)*width:(top+i+1)*width], f.Cells())
	}
	return out
}
