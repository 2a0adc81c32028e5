package field

import (
	"errors"
	"math"
	"testing"
)

func mustBuffered(t *testing.T, n int, layout Layout) *Buffered {
	t.Helper()
	b, err := NewBuffered("test", n, layout, nil)
	if err != nil {
		t.Fatalf("NewBuffered: %v", err)
	}
	return b
}

func TestNewBufferedErrors(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		layout Layout
		init   []float32
		want   error
	}{
		{"zero size", 0, Scalar, nil, ErrInvalidSize},
		{"bad layout", 4, Layout(3), nil, ErrInvalidLayout},
		{"short init", 4, Vector, make([]float32, 10), ErrInitLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuffered("f", tt.n, tt.layout, tt.init)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewBufferedInitCopiedToAllBuffers(t *testing.T) {
	init := make([]float32, Len(3, Scalar))
	for i := range init {
		init[i] = float32(i)
	}
	b, err := NewBuffered("d", 3, Scalar, init)
	if err != nil {
		t.Fatal(err)
	}
	for name, g := range map[string]*Grid{"current": b.Current, "scratch": b.Scratch, "snapshot": b.Snapshot} {
		for i, v := range g.Data {
			if v != init[i] {
				t.Fatalf("%s[%d] = %v, want %v", name, i, v, init[i])
			}
		}
	}
	init[0] = 99
	if b.Current.Data[0] == 99 {
		t.Error("buffer aliases caller's init slice")
	}
}

func TestRotationsAreInvolutions(t *testing.T) {
	b := mustBuffered(t, 4, Vector)
	cur, scr, snap := b.Current, b.Scratch, b.Snapshot

	b.RotateReadWrite()
	if b.Current != scr || b.Scratch != cur || b.Snapshot != snap {
		t.Error("RotateReadWrite did not swap Current and Scratch")
	}
	b.RotateReadWrite()
	if b.Current != cur || b.Scratch != scr {
		t.Error("RotateReadWrite twice is not identity")
	}

	b.CommitSnapshot()
	if b.Scratch != snap || b.Snapshot != scr || b.Current != cur {
		t.Error("CommitSnapshot did not swap Scratch and Snapshot")
	}
	b.CommitSnapshot()
	if b.Scratch != scr || b.Snapshot != snap {
		t.Error("CommitSnapshot twice is not identity")
	}

	b.RevertToSnapshot()
	if b.Current != snap || b.Snapshot != cur || b.Scratch != scr {
		t.Error("RevertToSnapshot did not swap Current and Snapshot")
	}
	b.RevertToSnapshot()
	if b.Current != cur || b.Snapshot != snap {
		t.Error("RevertToSnapshot twice is not identity")
	}
}

func TestIndexLayout(t *testing.T) {
	g, err := NewGrid(4, Vector)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Data) != 6*6*2 {
		t.Fatalf("len = %d, want 72", len(g.Data))
	}
	g.Set(2, 3, 1, 7)
	if got := g.Data[(3*6+2)*2+1]; got != 7 {
		t.Errorf("raw value = %v, want 7", got)
	}
	if got := g.At(2, 3, 1); got != 7 {
		t.Errorf("At = %v, want 7", got)
	}
	if got := len(g.Interior(1)); got != 8 {
		t.Errorf("interior row len = %d, want 8", got)
	}
}

func TestSampleBilinear(t *testing.T) {
	g, _ := NewGrid(4, Scalar)
	// Value equals x + 10*y, which bilinear interpolation reproduces exactly.
	for j := 0; j <= 5; j++ {
		for i := 0; i <= 5; i++ {
			g.Set(i, j, 0, float32(i+10*j))
		}
	}

	tests := []struct {
		x, y, want float32
	}{
		{1, 1, 11},
		{1.5, 1, 11.5},
		{2.25, 3.5, 37.25},
		{0.5, 4.5, 45.5},
		{-3, 2, 20}, // clamped to x=0
		{9, 9, 55},  // clamped to (5, 5)
	}
	for _, tt := range tests {
		if got := g.Sample(tt.x, tt.y, 0); math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("Sample(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	lo, hi := g.Taps(2.25, 3.5, 0)
	if lo != 32 || hi != 43 {
		t.Errorf("Taps = (%v, %v), want (32, 43)", lo, hi)
	}
}

func TestReductions(t *testing.T) {
	g, _ := NewGrid(3, Vector)
	g.Fill(0, 2)
	g.Fill(1, -1)
	// Ghost values must not leak into interior reductions.
	g.Set(0, 0, 0, 1000)

	if got := g.Sum(0); got != 18 {
		t.Errorf("Sum(0) = %v, want 18", got)
	}
	if got := g.Sum(1); got != -9 {
		t.Errorf("Sum(1) = %v, want -9", got)
	}
	if got := g.AbsSum(1); got != 9 {
		t.Errorf("AbsSum(1) = %v, want 9", got)
	}
	if got := g.SumSquares(); got != 45 {
		t.Errorf("SumSquares = %v, want 45", got)
	}
	if lo, hi := g.MinMax(0); lo != 2 || hi != 2 {
		t.Errorf("MinMax(0) = (%v, %v)", lo, hi)
	}
	if got := g.MaxMagnitude(); math.Abs(float64(got)-math.Sqrt(5)) > 1e-6 {
		t.Errorf("MaxMagnitude = %v, want sqrt(5)", got)
	}

	g.Set(2, 2, 1, float32(math.NaN()))
	g.Set(0, 4, 0, float32(math.Inf(1)))
	if got := g.CountNonFinite(); got != 2 {
		t.Errorf("CountNonFinite = %d, want 2", got)
	}
}

func TestCopyInteriorRowsKeepsGhosts(t *testing.T) {
	src, _ := NewGrid(3, Scalar)
	dst, _ := NewGrid(3, Scalar)
	src.Fill(0, 5)
	src.Set(0, 1, 0, 9)
	dst.CopyInteriorRows(src, 1, 4)

	if got := dst.At(2, 2, 0); got != 5 {
		t.Errorf("interior = %v, want 5", got)
	}
	if got := dst.At(0, 1, 0); got != 0 {
		t.Errorf("ghost = %v, want 0", got)
	}
}

func TestCopyFromShapeMismatch(t *testing.T) {
	a, _ := NewGrid(3, Scalar)
	b, _ := NewGrid(4, Scalar)
	if err := a.CopyFrom(b); !errors.Is(err, ErrShape) {
		t.Errorf("err = %v, want ErrShape", err)
	}
}
