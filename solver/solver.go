// Package solver implements the numerical stages of the fluid step:
// force injection, implicit diffusion, advection and pressure projection.
//
// Every stage reads Current (and Snapshot where noted) of its fields and
// writes Scratch, one dispatch at a time. Single-pass stages leave the
// rotation to the caller; relaxation stages rotate after each round.
package solver

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/gridfluid/field"
)

// ErrUnsupportedLayout is returned when a field's component layout does not
// match what a stage expects.
var ErrUnsupportedLayout = errors.New("solver: unsupported field layout")

func expectLayout(f *field.Buffered, want field.Layout) error {
	if got := f.Layout(); got != want {
		return fmt.Errorf("%w: %s is %v, want %v", ErrUnsupportedLayout, f.Name, got, want)
	}
	return nil
}

func expectSameSize(a, b *field.Buffered) error {
	if a.N() != b.N() {
		return fmt.Errorf("%w: %s is %d, %s is %d", field.ErrShape, a.Name, a.N(), b.Name, b.N())
	}
	return nil
}
