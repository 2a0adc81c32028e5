package field

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// component returns a strided view over component c of interior row j.
func (g *Grid) component(j, c int) blas32.Vector {
	return blas32.Vector{
		N:    g.N,
		Inc:  g.Components,
		Data: g.Data[g.Index(1, j)+c:],
	}
}

// Sum returns the signed sum of component c over the interior.
func (g *Grid) Sum(c int) float64 {
	ones := blas32.Vector{N: g.N, Inc: 1, Data: make([]float32, g.N)}
	for i := range ones.Data {
		ones.Data[i] = 1
	}
	var s float64
	for j := 1; j <= g.N; j++ {
		s += float64(blas32.Dot(g.component(j, c), ones))
	}
	return s
}

// AbsSum returns the sum of |v| for component c over the interior.
func (g *Grid) AbsSum(c int) float64 {
	var s float64
	for j := 1; j <= g.N; j++ {
		s += float64(blas32.Asum(g.component(j, c)))
	}
	return s
}

// SumSquares returns the sum of squares over every interior component.
func (g *Grid) SumSquares() float64 {
	var s float64
	for j := 1; j <= g.N; j++ {
		row := g.Interior(j)
		v := blas32.Vector{N: len(row), Inc: 1, Data: row}
		s += float64(blas32.Dot(v, v))
	}
	return s
}

// MinMax returns the extreme values of component c over the interior.
func (g *Grid) MinMax(c int) (lo, hi float32) {
	lo = float32(math.Inf(1))
	hi = float32(math.Inf(-1))
	for j := 1; j <= g.N; j++ {
		row := g.Interior(j)
		for k := c; k < len(row); k += g.Components {
			lo = min(lo, row[k])
			hi = max(hi, row[k])
		}
	}
	return lo, hi
}

// MaxMagnitude returns the largest per-cell Euclidean norm over the interior.
func (g *Grid) MaxMagnitude() float32 {
	var best float32
	for j := 1; j <= g.N; j++ {
		row := g.Interior(j)
		for k := 0; k < len(row); k += g.Components {
			v := blas32.Vector{N: g.Components, Inc: 1, Data: row[k : k+g.Components]}
			best = max(best, blas32.Nrm2(v))
		}
	}
	return best
}

// CountNonFinite counts NaN or infinite values anywhere in the buffer.
func (g *Grid) CountNonFinite() int {
	n := 0
	for _, v := range g.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			n++
		}
	}
	return n
}

// CopyInteriorRows copies interior cells of rows lo..hi-1 from src.
// Used as a kernel body for pass-through dispatches.
func (g *Grid) CopyInteriorRows(src *Grid, lo, hi int) {
	for j := lo; j < hi; j++ {
		from := src.Interior(j)
		blas32.Copy(
			blas32.Vector{N: len(from), Inc: 1, Data: from},
			blas32.Vector{N: len(from), Inc: 1, Data: g.Interior(j)},
		)
	}
}
