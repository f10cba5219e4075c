// Package codec reads and writes the images the scrambler works on.
package codec

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/PhantomInTheWire/image-scrambler/pkg/scramble"
)

// ErrDecode marks an input that could not be read as an image.
var ErrDecode = errors.New("codec: cannot decode image")

// Open decodes the image file at path into a pixel buffer.
func Open(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads an image in any of the formats imaging understands.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrDecode, b.Dx(), b.Dy())
	}
	return scramble.FromImage(img), nil
}

// Save encodes img to path, picking the format from the file extension.
// Parent directories are created as needed.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w in the format implied by name's extension.
func Encode(w io.Writer, img image.Image, name string) error {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, format)
}
