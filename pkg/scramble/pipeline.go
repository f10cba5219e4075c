package scramble

import (
	"image"
)

// DefaultGridSize is used for Columns or Rows left at zero.
const DefaultGridSize = 5

// Output name tags, in the order the stages run.
const (
	TagFlipVertical   = "flipv"
	TagFlipHorizontal = "fliph"
	TagGray           = "gray"
	TagPuzzle         = "puzzle"
)

// Options selects the stages of a Pipeline run.
type Options struct {
	FlipVertical   bool
	FlipHorizontal bool
	Gray           bool
	Puzzle         bool

	// Puzzle grid; zero means DefaultGridSize.
	Columns int
	Rows    int
}

// Grid returns the puzzle grid with defaults applied.
func (o Options) Grid() (cols, rows int) {
	cols, rows = o.Columns, o.Rows
	if cols == 0 {
		cols = DefaultGridSize
	}
	if rows == 0 {
		rows = DefaultGridSize
	}
	return cols, rows
}

// Result is the outcome of a Pipeline run.
type Result struct {
	Image *image.NRGBA
	// Tags names the stages that ran, for OutputName.
	Tags []string
}

type stage struct {
	tag     string
	enabled bool
	apply   func(*image.NRGBA) (*image.NRGBA, error)
}

// Pipeline runs the transforms in a fixed order: vertical flip,
// horizontal flip, gray, puzzle. The random source is kept across runs
// and never reseeded.
type Pipeline struct {
	rng Source
}

// NewPipeline returns a Pipeline that shuffles puzzle cells with rng.
func NewPipeline(rng Source) *Pipeline {
	return &Pipeline{rng: rng}
}

// Run applies the enabled stages to buf. buf may be modified.
func (p *Pipeline) Run(buf *image.NRGBA, opts Options) (*Result, error) {
	if err := checkBuffer(buf); err != nil {
		return nil, err
	}
	cols, rows := opts.Grid()

	stages := []stage{
		{TagFlipVertical, opts.FlipVertical, total(FlipVertical)},
		{TagFlipHorizontal, opts.FlipHorizontal, total(FlipHorizontal)},
		{TagGray, opts.Gray, total(Gray)},
		{TagPuzzle, opts.Puzzle, func(b *image.NRGBA) (*image.NRGBA, error) {
			return Puzzle(b, cols, rows, p.rng)
		}},
	}

	res := &Result{Image: buf, Tags: []string{}}
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		out, err := s.apply(res.Image)
		if err != nil {
			return nil, err
		}
		res.Image = out
		res.Tags = append(res.Tags, s.tag)
	}
	return res, nil
}

func total(fn func(*image.NRGBA) *image.NRGBA) func(*image.NRGBA) (*image.NRGBA, error) {
	return func(b *image.NRGBA) (*image.NRGBA, error) {
		return fn(b), nil
	}
}
