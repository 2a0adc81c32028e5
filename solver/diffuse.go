package solver

import (
	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/field"
)

// Diffuse solves (I - a*laplacian) x = x0 with a = dt*diff*N^2 by Jacobi
// relaxation, starting from x0. x0 is frozen in Snapshot for the whole
// solve; each round writes Scratch and rotates. Any component layout works.
//
// No convergence test is made: exactly iterations rounds run. If a round
// fails, Current is put back to x0.
func Diffuse(dev compute.Device, f *field.Buffered, dt, diff float32, iterations int) error {
	if !f.Layout().Valid() {
		return ErrUnsupportedLayout
	}
	if iterations <= 0 {
		return nil
	}

	// Scratch <- Current, then move it into Snapshot. Current still holds
	// x0 and serves as the initial guess.
	if err := Carry(dev, f); err != nil {
		return err
	}
	f.CommitSnapshot()

	n := f.N()
	a := dt * diff * float32(n) * float32(n)
	denom := 1 + 4*a
	comps := f.Current.Components
	x0 := f.Snapshot

	for it := 0; it < iterations; it++ {
		src, dst := f.Current, f.Scratch
		err := dev.Dispatch(n, func(lo, hi int) {
			for j := lo; j < hi; j++ {
				for i := 1; i <= n; i++ {
					for c := 0; c < comps; c++ {
						sum := src.At(i-1, j, c) + src.At(i+1, j, c) +
							src.At(i, j-1, c) + src.At(i, j+1, c)
						dst.Set(i, j, c, (x0.At(i, j, c)+a*sum)/denom)
					}
				}
			}
		})
		if err != nil {
			f.RevertToSnapshot()
			return err
		}
		f.RotateReadWrite()
	}
	return nil
}
