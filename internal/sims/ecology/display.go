package ecology

import "image/color"

var (
	dirtColor    = color.NRGBA{R: 70, G: 52, B: 32, A: 255}
	rockColor    = color.NRGBA{R: 130, G: 130, B: 130, A: 255}
	burningColor = color.NRGBA{R: 255, G: 130, B: 40, A: 255}
	embersColor  = color.NRGBA{R: 150, G: 40, B: 20, A: 255}
)

// Color maps a cell value to its display color. Burning cells fade towards
// embers as they burn down.
func Color(v float64) color.RGBA {
	switch {
	case Burning(v):
		heat := min((v-burnBase)/3, 1)
		return toRGBA(blendColors(embersColor, burningColor, heat))
	case v == Rock:
		return toRGBA(rockColor)
	case Vegetated(v):
		return toRGBA(blendColors(dirtColor, vegetationColor(v), 0.75))
	}
	return toRGBA(dirtColor)
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func vegetationColor(v float64) color.NRGBA {
	switch v {
	case Grass:
		return color.NRGBA{R: 70, G: 160, B: 80, A: 255}
	case Shrub:
		return color.NRGBA{R: 60, G: 125, B: 60, A: 255}
	case Tree:
		return color.NRGBA{R: 40, G: 100, B: 55, A: 255}
	default:
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	}
}

func blendColors(base, overlay color.NRGBA, overlayWeight float64) color.NRGBA {
	if overlayWeight <= 0 {
		return base
	}
	if overlayWeight >= 1 {
		return overlay
	}
	br, bg, bb, ba := float64(base.R), float64(base.G), float64(base.B), float64(base.A)
	or, og, ob, oa := float64(overlay.R), float64(overlay.G), float64(overlay.B), float64(overlay.A)
	w := overlayWeight
	inv := 1 - w
	return color.NRGBA{
		R: uint8(br*inv + or*w + 0.5),
		G: uint8(bg*inv + og*w + 0.5),
		B: uint8(bb*inv + ob*w + 0.5),
		A: uint8(ba*inv + oa*w + 0.5),
	}
}
