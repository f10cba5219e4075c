package scramble

import (
	"image"

	"github.com/disintegration/imaging"
)

// FlipVertical returns buf upside down: out[x, y] = buf[x, H-1-y].
func FlipVertical(buf *image.NRGBA) *image.NRGBA {
	return imaging.FlipV(buf)
}

// FlipHorizontal returns buf mirrored left to right: out[x, y] = buf[W-1-x, y].
func FlipHorizontal(buf *image.NRGBA) *image.NRGBA {
	return imaging.FlipH(buf)
}
