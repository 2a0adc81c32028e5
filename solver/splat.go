package solver

import (
	"math"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/field"
)

// SplatParams describes one pointer injection in grid coordinates.
type SplatParams struct {
	X, Y   float32 // center
	VX, VY float32 // impulse added at the center
	Radius float32
	Amount float32 // density added at the center
}

// Splat adds density and velocity with a linear falloff around the pointer,
// writing Scratch of both fields from their Current. Cells at or beyond the
// radius are copied unchanged. The caller rotates both fields.
//
// A non-positive radius dispatches nothing and reports false.
func Splat(dev compute.Device, density, velocity *field.Buffered, p SplatParams) (bool, error) {
	if err := expectLayout(density, field.Scalar); err != nil {
		return false, err
	}
	if err := expectLayout(velocity, field.Vector); err != nil {
		return false, err
	}
	if err := expectSameSize(density, velocity); err != nil {
		return false, err
	}
	if !(p.Radius > 0) {
		return false, nil
	}

	n := density.N()
	dSrc, dDst := density.Current, density.Scratch
	vSrc, vDst := velocity.Current, velocity.Scratch

	err := dev.Dispatch(n, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			dy := float32(j) - p.Y
			for i := 1; i <= n; i++ {
				dx := float32(i) - p.X
				d := dSrc.At(i, j, 0)
				vx := vSrc.At(i, j, 0)
				vy := vSrc.At(i, j, 1)

				dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
				if dist < p.Radius {
					f := 1 - dist/p.Radius
					d += f * p.Amount
					vx += f * p.VX
					vy += f * p.VY
				}

				dDst.Set(i, j, 0, d)
				vDst.Set(i, j, 0, vx)
				vDst.Set(i, j, 1, vy)
			}
		}
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Carry copies Current into Scratch for each field. Rotating afterwards
// leaves the values unchanged.
func Carry(dev compute.Device, fields ...*field.Buffered) error {
	for _, f := range fields {
		src, dst := f.Current, f.Scratch
		if err := dev.Dispatch(f.N(), func(lo, hi int) {
			dst.CopyInteriorRows(src, lo, hi)
		}); err != nil {
			return err
		}
	}
	return nil
}
