// Package scramble implements the image transforms behind the scrambler:
// mirroring, grayscale conversion and the puzzle shuffle.
//
// Every stage works on *image.NRGBA buffers anchored at (0, 0). Decoded
// images of any other type are normalized with FromImage first.
package scramble

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyBuffer is returned when a stage is handed a buffer without pixels.
var ErrEmptyBuffer = errors.New("scramble: empty pixel buffer")

// FromImage copies img into a fresh NRGBA buffer whose bounds start at (0, 0).
func FromImage(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

func checkBuffer(buf *image.NRGBA) error {
	if buf == nil || buf.Bounds().Dx() <= 0 || buf.Bounds().Dy() <= 0 {
		return ErrEmptyBuffer
	}
	return nil
}
