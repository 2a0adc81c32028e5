// Package field holds the grid storage shared by every solver stage.
//
// A grid of resolution N stores (N+2)x(N+2) cells. Cells 1..N on each axis
// are the interior; row and column 0 and N+1 form a ghost border that
// absorbs the +-1 stencil offsets and the bilinear taps of clamped traces.
// Kernels only ever write interior cells.
package field

import (
	"errors"
	"fmt"
	"math"
)

// Layout is the number of float32 components stored per cell.
type Layout int

const (
	Scalar Layout = 1
	Vector Layout = 2
)

var (
	ErrInvalidSize   = errors.New("field: grid size must be >= 1")
	ErrInvalidLayout = errors.New("field: unsupported layout")
	ErrInitLength    = errors.New("field: initial data length mismatch")
	ErrShape         = errors.New("field: grid shape mismatch")
)

// Valid reports whether l is a supported layout.
func (l Layout) Valid() bool {
	return l == Scalar || l == Vector
}

func (l Layout) String() string {
	switch l {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// Grid is one (N+2)x(N+2) buffer of float32 cells, row-major, with
// Components values per cell stored contiguously.
type Grid struct {
	N          int
	Stride     int // N+2 cells per row
	Components int
	Data       []float32
}

// NewGrid allocates a zeroed grid.
func NewGrid(n int, layout Layout) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}
	if !layout.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, layout)
	}
	stride := n + 2
	return &Grid{
		N:          n,
		Stride:     stride,
		Components: int(layout),
		Data:       make([]float32, stride*stride*int(layout)),
	}, nil
}

// Layout returns the grid's component layout.
func (g *Grid) Layout() Layout { return Layout(g.Components) }

// Len is the number of float32 values per buffer for resolution n.
func Len(n int, layout Layout) int {
	return (n + 2) * (n + 2) * int(layout)
}

// Index returns the offset of component 0 of cell (i, j).
func (g *Grid) Index(i, j int) int {
	return (j*g.Stride + i) * g.Components
}

// At returns component c of cell (i, j).
func (g *Grid) At(i, j, c int) float32 {
	return g.Data[g.Index(i, j)+c]
}

// Set writes component c of cell (i, j).
func (g *Grid) Set(i, j, c int, v float32) {
	g.Data[g.Index(i, j)+c] = v
}

// Row returns the full row j, ghost cells included.
func (g *Grid) Row(j int) []float32 {
	w := g.Stride * g.Components
	return g.Data[j*w : (j+1)*w]
}

// Interior returns the interior cells of row j.
func (g *Grid) Interior(j int) []float32 {
	lo := g.Index(1, j)
	return g.Data[lo : lo+g.N*g.Components]
}

// Sample bilinearly interpolates component c at grid coordinate (x, y).
// Cell (i, j) holds the value at coordinate (i, j). Coordinates are clamped
// to [0, N+1] so the four taps always lie inside the buffer.
func (g *Grid) Sample(x, y float32, c int) float32 {
	hi := float32(g.N + 1)
	x = clamp(x, 0, hi)
	y = clamp(y, 0, hi)

	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, g.N+1)
	y1 := min(y0+1, g.N+1)
	tx := x - float32(x0)
	ty := y - float32(y0)

	a := g.At(x0, y0, c) + (g.At(x1, y0, c)-g.At(x0, y0, c))*tx
	b := g.At(x0, y1, c) + (g.At(x1, y1, c)-g.At(x0, y1, c))*tx
	return a + (b-a)*ty
}

// Taps returns the minimum and maximum of the four cells Sample would
// blend at (x, y).
func (g *Grid) Taps(x, y float32, c int) (lo, hi float32) {
	top := float32(g.N + 1)
	x = clamp(x, 0, top)
	y = clamp(y, 0, top)
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, g.N+1), min(y0+1, g.N+1)

	lo = float32(math.Inf(1))
	hi = float32(math.Inf(-1))
	for _, v := range [4]float32{g.At(x0, y0, c), g.At(x1, y0, c), g.At(x0, y1, c), g.At(x1, y1, c)} {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// CopyFrom copies every cell of src, ghost border included.
func (g *Grid) CopyFrom(src *Grid) error {
	if src.N != g.N || src.Components != g.Components {
		return fmt.Errorf("%w: %dx%d/%d vs %dx%d/%d", ErrShape,
			src.N, src.N, src.Components, g.N, g.N, g.Components)
	}
	copy(g.Data, src.Data)
	return nil
}

// Fill sets every interior cell's component c to v.
func (g *Grid) Fill(c int, v float32) {
	for j := 1; j <= g.N; j++ {
		for i := 1; i <= g.N; i++ {
			g.Set(i, j, c, v)
		}
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
