package scramble

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"sort"
	"testing"
)

// newTestImage returns a w×h buffer where every pixel is different.
func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x),
				G: uint8(y),
				B: uint8((x*7 + y*13) % 256),
				A: uint8(255 - (x+y)%3),
			})
		}
	}
	return img
}

func samePixels(t *testing.T, got, want *image.NRGBA) {
	t.Helper()
	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			if g, w := got.NRGBAAt(x, y), want.NRGBAAt(x, y); g != w {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func TestFlipMapping(t *testing.T) {
	src := newTestImage(7, 5)
	v := FlipVertical(src)
	h := FlipHorizontal(src)
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			if v.NRGBAAt(x, y) != src.NRGBAAt(x, 4-y) {
				t.Fatalf("FlipVertical (%d,%d) = %v, want %v", x, y, v.NRGBAAt(x, y), src.NRGBAAt(x, 4-y))
			}
			if h.NRGBAAt(x, y) != src.NRGBAAt(6-x, y) {
				t.Fatalf("FlipHorizontal (%d,%d) = %v, want %v", x, y, h.NRGBAAt(x, y), src.NRGBAAt(6-x, y))
			}
		}
	}
}

func TestFlipInvolution(t *testing.T) {
	sizes := []struct{ w, h int }{{1, 1}, {1, 9}, {9, 1}, {4, 4}, {13, 6}}
	for _, sz := range sizes {
		src := newTestImage(sz.w, sz.h)
		samePixels(t, FlipVertical(FlipVertical(src)), src)
		samePixels(t, FlipHorizontal(FlipHorizontal(src)), src)
	}
}

func TestLuminosity(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    uint8
	}{
		{"black", 0, 0, 0, 0},
		{"white", 255, 255, 255, 255},
		{"mid gray", 128, 128, 128, 128},
		{"red", 255, 0, 0, 76},
		{"green", 0, 255, 0, 149},
		{"blue", 0, 0, 255, 29},
		{"mixed truncates", 100, 150, 200, 140},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Luminosity(tc.r, tc.g, tc.b); got != tc.want {
				t.Errorf("Luminosity(%d, %d, %d) = %d, want %d", tc.r, tc.g, tc.b, got, tc.want)
			}
		})
	}
}

func TestGray(t *testing.T) {
	src := newTestImage(16, 16)
	once := Gray(src)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c, o := once.NRGBAAt(x, y), src.NRGBAAt(x, y)
			if c.R != c.G || c.G != c.B {
				t.Fatalf("pixel (%d,%d) = %v, not gray", x, y, c)
			}
			if c.R != Luminosity(o.R, o.G, o.B) {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, c.R, Luminosity(o.R, o.G, o.B))
			}
			if c.A != o.A {
				t.Fatalf("pixel (%d,%d) alpha = %d, want %d", x, y, c.A, o.A)
			}
		}
	}
	samePixels(t, Gray(once), once)
}

func TestPartitionOrder(t *testing.T) {
	src := newTestImage(100, 100)
	cellW, cellH, cells, err := Partition(src, 2, 2)
	if err != nil {
		t.Fatalf("Partition() failed: %v", err)
	}
	if cellW != 50 || cellH != 50 {
		t.Fatalf("cell size = %dx%d, want 50x50", cellW, cellH)
	}
	want := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(cells), len(want))
	}
	for i, c := range cells {
		if c.GridX != want[i][0] || c.GridY != want[i][1] {
			t.Errorf("cell %d at (%d,%d), want (%d,%d)", i, c.GridX, c.GridY, want[i][0], want[i][1])
		}
		if c.Img.Bounds() != image.Rect(0, 0, 50, 50) {
			t.Errorf("cell %d bounds = %v", i, c.Img.Bounds())
		}
		if got, w := c.Img.NRGBAAt(0, 0), src.NRGBAAt(c.GridX*50, c.GridY*50); got != w {
			t.Errorf("cell %d origin pixel = %v, want %v", i, got, w)
		}
	}
}

func TestPartitionOwnsPixels(t *testing.T) {
	src := newTestImage(4, 4)
	_, _, cells, err := Partition(src, 2, 2)
	if err != nil {
		t.Fatalf("Partition() failed: %v", err)
	}
	before := cells[0].Img.NRGBAAt(0, 0)
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	if cells[0].Img.NRGBAAt(0, 0) != before {
		t.Error("cell shares pixels with the source buffer")
	}
}

func TestPartitionReassembleIdentity(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		cols, rows int
		outW, outH int
	}{
		{"exact multiple", 100, 100, 2, 2, 100, 100},
		{"remainder dropped", 7, 10, 2, 3, 6, 9},
		{"single cell", 9, 4, 1, 1, 9, 4},
		{"one pixel cells", 5, 3, 5, 3, 5, 3},
		{"default grid", 23, 17, 5, 5, 20, 15},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := newTestImage(tc.w, tc.h)
			cellW, cellH, cells, err := Partition(src, tc.cols, tc.rows)
			if err != nil {
				t.Fatalf("Partition() failed: %v", err)
			}
			out, err := Reassemble(cellW, cellH, tc.cols, tc.rows, cells)
			if err != nil {
				t.Fatalf("Reassemble() failed: %v", err)
			}
			if out.Bounds() != image.Rect(0, 0, tc.outW, tc.outH) {
				t.Fatalf("output bounds = %v, want %dx%d", out.Bounds(), tc.outW, tc.outH)
			}
			cropped := src.SubImage(image.Rect(0, 0, tc.outW, tc.outH)).(*image.NRGBA)
			samePixels(t, out, FromImage(cropped))
		})
	}
}

func TestPartitionInvalidGrid(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
	}{
		{"zero columns", 0, 2},
		{"zero rows", 2, 0},
		{"negative", -1, 3},
		{"too many columns", 11, 2},
		{"too many rows", 2, 6},
	}
	src := newTestImage(10, 5)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := Partition(src, tc.cols, tc.rows)
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("Partition(%d, %d) error = %v, want ErrInvalidGrid", tc.cols, tc.rows, err)
			}
		})
	}
}

func TestPartitionEmptyBuffer(t *testing.T) {
	if _, _, _, err := Partition(nil, 1, 1); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Partition(nil) error = %v, want ErrEmptyBuffer", err)
	}
}

func TestSwapCount(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0},
		{1, 0},
		{2, 1},
		{4, 5},
		{25, 198},
	}
	for _, tc := range tests {
		if got := SwapCount(tc.n); got != tc.want {
			t.Errorf("SwapCount(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

// scriptedSource replays fixed indices and records the bounds it was asked for.
type scriptedSource struct {
	idx   []int
	calls []int
}

func (s *scriptedSource) Intn(n int) int {
	s.calls = append(s.calls, n)
	v := s.idx[0]
	s.idx = s.idx[1:]
	return v
}

func gridIndices(cells []Cell, rows int) []int {
	out := make([]int, len(cells))
	for i, c := range cells {
		out[i] = c.GridX*rows + c.GridY
	}
	return out
}

func TestShuffleSwapSequence(t *testing.T) {
	_, _, cells, err := Partition(newTestImage(4, 4), 2, 2)
	if err != nil {
		t.Fatalf("Partition() failed: %v", err)
	}
	src := &scriptedSource{idx: []int{0, 3, 1, 1, 2, 0, 1, 2, 3, 3}}
	Shuffle(cells, src)

	if len(src.calls) != 10 {
		t.Fatalf("Intn called %d times, want 10", len(src.calls))
	}
	for _, n := range src.calls {
		if n != 4 {
			t.Fatalf("Intn(%d), want Intn(4)", n)
		}
	}
	got := gridIndices(cells, 2)
	want := []int{2, 3, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	_, _, cells, err := Partition(newTestImage(30, 30), 6, 5)
	if err != nil {
		t.Fatalf("Partition() failed: %v", err)
	}
	Shuffle(cells, rand.New(rand.NewSource(7)))
	got := gridIndices(cells, 5)
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("shuffled cells are not a permutation: %v", got)
		}
	}
}

func TestPuzzleSingleCellIsIdentity(t *testing.T) {
	src := newTestImage(12, 8)
	out, err := Puzzle(src, 1, 1, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Puzzle() failed: %v", err)
	}
	samePixels(t, out, src)
}

func TestPuzzleKeepsCellContents(t *testing.T) {
	src := newTestImage(100, 100)
	out, err := Puzzle(src, 2, 2, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Puzzle() failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("output bounds = %v", out.Bounds())
	}

	contents := func(img *image.NRGBA) []string {
		_, _, cells, err := Partition(img, 2, 2)
		if err != nil {
			t.Fatalf("Partition() failed: %v", err)
		}
		var s []string
		for _, c := range cells {
			s = append(s, string(c.Img.Pix))
		}
		sort.Strings(s)
		return s
	}
	before, after := contents(src), contents(out)
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("cell contents changed during the puzzle")
		}
	}
}

func TestReassembleCellCountMismatch(t *testing.T) {
	_, _, cells, err := Partition(newTestImage(4, 4), 2, 2)
	if err != nil {
		t.Fatalf("Partition() failed: %v", err)
	}
	if _, err := Reassemble(2, 2, 2, 2, cells[:3]); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("Reassemble() error = %v, want ErrInvalidGrid", err)
	}
}

func TestReassembleRejectsDegenerateGrid(t *testing.T) {
	tests := []struct {
		name                     string
		cellW, cellH, cols, rows int
		cells                    []Cell
	}{
		{"negative grid", 2, 2, -1, -1, []Cell{{}}},
		{"zero columns", 2, 2, 0, 3, nil},
		{"zero cell width", 0, 2, 1, 1, []Cell{{}}},
		{"negative cell height", 2, -2, 1, 1, []Cell{{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Reassemble(tc.cellW, tc.cellH, tc.cols, tc.rows, tc.cells)
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("Reassemble() = %v, %v; want ErrInvalidGrid", out, err)
			}
		})
	}
}
