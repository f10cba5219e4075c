package scramble

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// ErrInvalidGrid is returned when a puzzle grid cannot be cut from a buffer.
var ErrInvalidGrid = errors.New("scramble: invalid puzzle grid")

// Cell is one rectangular piece of a puzzle. It owns its pixels and
// remembers the grid position it was cut from.
type Cell struct {
	GridX, GridY int
	Img          *image.NRGBA
}

// Source supplies the indices used by Shuffle. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Partition cuts buf into cols×rows cells of W/cols × H/rows pixels.
// Cells are returned column by column, so the cell at grid (x, y) has
// index x*rows+y. Pixels past cellW*cols or cellH*rows are dropped.
func Partition(buf *image.NRGBA, cols, rows int) (cellW, cellH int, cells []Cell, err error) {
	if err := checkBuffer(buf); err != nil {
		return 0, 0, nil, err
	}
	b := buf.Bounds()
	if cols <= 0 || rows <= 0 {
		return 0, 0, nil, fmt.Errorf("%w: %dx%d cells", ErrInvalidGrid, cols, rows)
	}
	if cols > b.Dx() || rows > b.Dy() {
		return 0, 0, nil, fmt.Errorf("%w: %dx%d cells do not fit a %dx%d image",
			ErrInvalidGrid, cols, rows, b.Dx(), b.Dy())
	}

	cellW, cellH = b.Dx()/cols, b.Dy()/rows
	cells = make([]Cell, 0, cols*rows)
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			x0, y0 := b.Min.X+x*cellW, b.Min.Y+y*cellH
			cells = append(cells, Cell{
				GridX: x,
				GridY: y,
				Img:   imaging.Crop(buf, image.Rect(x0, y0, x0+cellW, y0+cellH)),
			})
		}
	}
	return cellW, cellH, cells, nil
}

// SwapCount is the number of random transpositions Shuffle performs on n cells.
func SwapCount(n int) int {
	return int(float64(n) * (float64(n) / math.Pi))
}

// Shuffle permutes cells in place with SwapCount(len(cells)) random
// pairwise swaps. Both indices of a swap are drawn independently, so a
// swap may be a no-op. This is not a uniform shuffle: small grids stay
// close to their original order.
func Shuffle(cells []Cell, rng Source) {
	n := len(cells)
	swaps := SwapCount(n)
	for i := 0; i < swaps; i++ {
		i1, i2 := rng.Intn(n), rng.Intn(n)
		cells[i1], cells[i2] = cells[i2], cells[i1]
	}
}

// Reassemble pastes cells onto a cellW*cols × cellH*rows canvas. Grid
// position (x, y) receives cells[x*rows+y], whatever cell that is.
func Reassemble(cellW, cellH, cols, rows int, cells []Cell) (*image.NRGBA, error) {
	if cols <= 0 || rows <= 0 || cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d cells of %dx%d pixels", ErrInvalidGrid, cols, rows, cellW, cellH)
	}
	if len(cells) != cols*rows {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid", ErrInvalidGrid, len(cells), cols, rows)
	}
	dst := imaging.New(cellW*cols, cellH*rows, color.NRGBA{})
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			c := cells[x*rows+y]
			if c.Img == nil || c.Img.Bounds().Dx() != cellW || c.Img.Bounds().Dy() != cellH {
				return nil, fmt.Errorf("%w: cell %d is not %dx%d", ErrInvalidGrid, x*rows+y, cellW, cellH)
			}
			r := image.Rect(x*cellW, y*cellH, (x+1)*cellW, (y+1)*cellH)
			draw.Draw(dst, r, c.Img, c.Img.Bounds().Min, draw.Src)
		}
	}
	return dst, nil
}

// Puzzle cuts buf into a cols×rows grid, shuffles the cells and stitches
// them back together.
func Puzzle(buf *image.NRGBA, cols, rows int, rng Source) (*image.NRGBA, error) {
	cellW, cellH, cells, err := Partition(buf, cols, rows)
	if err != nil {
		return nil, err
	}
	Shuffle(cells, rng)
	return Reassemble(cellW, cellH, cols, rows, cells)
}
