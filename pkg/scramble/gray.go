package scramble

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Luminosity weights an RGB triple with the Rec. 601 coefficients and
// truncates the result.
func Luminosity(r, g, b uint8) uint8 {
	// Already gray: 0.299+0.587+0.114 sums to one, but not in float64.
	if r == g && g == b {
		return r
	}
	l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if l >= 255 {
		return 255
	}
	return uint8(l)
}

// Gray replaces the color channels of every pixel with their luminosity.
// Alpha is kept as is.
func Gray(buf *image.NRGBA) *image.NRGBA {
	return imaging.AdjustFunc(buf, func(c color.NRGBA) color.NRGBA {
		l := Luminosity(c.R, c.G, c.B)
		return color.NRGBA{R: l, G: l, B: l, A: c.A}
	})
}
