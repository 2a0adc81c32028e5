package field

import "fmt"

// Buffered is a triple-buffered field. Current is authoritative, Scratch is
// the write target of the next dispatch and Snapshot holds the frozen
// right-hand side of a relaxation. The three pointers are only ever
// permuted, never copied.
type Buffered struct {
	Name     string
	Current  *Grid
	Scratch  *Grid
	Snapshot *Grid
}

// NewBuffered allocates three grids of resolution n. When init is non-empty
// it must hold Len(n, layout) values and is copied into all three buffers,
// so the ghost border agrees whichever buffer is current.
func NewBuffered(name string, n int, layout Layout, init []float32) (*Buffered, error) {
	b := &Buffered{Name: name}
	for _, dst := range []**Grid{&b.Current, &b.Scratch, &b.Snapshot} {
		g, err := NewGrid(n, layout)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		*dst = g
	}

	if len(init) == 0 {
		return b, nil
	}
	if want := Len(n, layout); len(init) != want {
		return nil, fmt.Errorf("field %q: %w: got %d, want %d", name, ErrInitLength, len(init), want)
	}
	copy(b.Current.Data, init)
	copy(b.Scratch.Data, init)
	copy(b.Snapshot.Data, init)
	return b, nil
}

// N returns the grid resolution.
func (b *Buffered) N() int { return b.Current.N }

// Layout returns the component layout shared by all three buffers.
func (b *Buffered) Layout() Layout { return b.Current.Layout() }

// RotateReadWrite swaps Current and Scratch.
func (b *Buffered) RotateReadWrite() {
	b.Current, b.Scratch = b.Scratch, b.Current
}

// CommitSnapshot swaps Scratch and Snapshot.
func (b *Buffered) CommitSnapshot() {
	b.Scratch, b.Snapshot = b.Snapshot, b.Scratch
}

// RevertToSnapshot swaps Current and Snapshot. After a relaxation that
// froze its input in Snapshot, this makes that input current again.
func (b *Buffered) RevertToSnapshot() {
	b.Current, b.Snapshot = b.Snapshot, b.Current
}

// Bytes is the storage held by the three buffers.
func (b *Buffered) Bytes() int {
	return 3 * len(b.Current.Data) * 4
}

// Reset zeroes all three buffers.
func (b *Buffered) Reset() {
	clear(b.Current.Data)
	clear(b.Scratch.Data)
	clear(b.Snapshot.Data)
}
