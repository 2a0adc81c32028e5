package solver

import (
	"math"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/field"
)

// Projector removes the divergent part of a velocity field with a Jacobi
// pressure solve.
type Projector struct {
	// ZeroPressure restarts every solve from p = 0. Otherwise the previous
	// pressure is scaled by Damping and used as the initial guess.
	ZeroPressure bool
	Damping      float32
}

// Project runs Init, Solve and Apply in sequence. If any phase fails, vel,
// div and pressure are left as they were before the call.
func (p *Projector) Project(dev compute.Device, vel, div, pressure *field.Buffered, iterations int) error {
	savedDiv, savedPressure := *div, *pressure
	if err := p.Init(dev, vel, div, pressure); err != nil {
		return err
	}
	// Park the previous pressure in Snapshot so the solve ping-pongs
	// between the other two buffers.
	pressure.CommitSnapshot()

	err := p.Solve(dev, div, pressure, iterations)
	if err == nil {
		err = p.Apply(dev, vel, pressure)
	}
	if err != nil {
		*div, *pressure = savedDiv, savedPressure
	}
	return err
}

func checkProjection(vel, div, pressure *field.Buffered) error {
	if err := expectLayout(vel, field.Vector); err != nil {
		return err
	}
	if err := expectLayout(div, field.Scalar); err != nil {
		return err
	}
	if err := expectLayout(pressure, field.Scalar); err != nil {
		return err
	}
	if err := expectSameSize(vel, div); err != nil {
		return err
	}
	return expectSameSize(vel, pressure)
}

// Init computes the central-difference divergence of vel and resets the
// pressure guess, in one dispatch. Rotates div and pressure.
func (p *Projector) Init(dev compute.Device, vel, div, pressure *field.Buffered) error {
	if err := checkProjection(vel, div, pressure); err != nil {
		return err
	}

	n := vel.N()
	h := 1 / float32(n)
	v := vel.Current
	dOut := div.Scratch
	pIn, pOut := pressure.Current, pressure.Scratch
	zero := p.ZeroPressure
	damping := p.Damping

	err := dev.Dispatch(n, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			for i := 1; i <= n; i++ {
				dx := v.At(i+1, j, 0) - v.At(i-1, j, 0)
				dy := v.At(i, j+1, 1) - v.At(i, j-1, 1)
				dOut.Set(i, j, 0, -0.5*h*(dx+dy))
				if zero {
					pOut.Set(i, j, 0, 0)
				} else {
					pOut.Set(i, j, 0, damping*pIn.At(i, j, 0))
				}
			}
		}
	})
	if err != nil {
		return err
	}
	div.RotateReadWrite()
	pressure.RotateReadWrite()
	return nil
}

// Solve runs Jacobi rounds of p = (div + sum of 4 neighbors) / 4. div is
// the fixed right-hand side; pressure rotates after each round.
func (p *Projector) Solve(dev compute.Device, div, pressure *field.Buffered, iterations int) error {
	if err := expectLayout(div, field.Scalar); err != nil {
		return err
	}
	if err := expectLayout(pressure, field.Scalar); err != nil {
		return err
	}
	if err := expectSameSize(div, pressure); err != nil {
		return err
	}

	n := pressure.N()
	rhs := div.Current
	for it := 0; it < iterations; it++ {
		src, dst := pressure.Current, pressure.Scratch
		err := dev.Dispatch(n, func(lo, hi int) {
			for j := lo; j < hi; j++ {
				for i := 1; i <= n; i++ {
					sum := src.At(i-1, j, 0) + src.At(i+1, j, 0) +
						src.At(i, j-1, 0) + src.At(i, j+1, 0)
					dst.Set(i, j, 0, (rhs.At(i, j, 0)+sum)*0.25)
				}
			}
		})
		if err != nil {
			return err
		}
		pressure.RotateReadWrite()
	}
	return nil
}

// Apply subtracts the pressure gradient from vel and rotates vel.
func (p *Projector) Apply(dev compute.Device, vel, pressure *field.Buffered) error {
	if err := expectLayout(vel, field.Vector); err != nil {
		return err
	}
	if err := expectLayout(pressure, field.Scalar); err != nil {
		return err
	}
	if err := expectSameSize(vel, pressure); err != nil {
		return err
	}

	n := vel.N()
	invH := float32(n)
	pr := pressure.Current
	src, dst := vel.Current, vel.Scratch

	err := dev.Dispatch(n, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			for i := 1; i <= n; i++ {
				gx := pr.At(i+1, j, 0) - pr.At(i-1, j, 0)
				gy := pr.At(i, j+1, 0) - pr.At(i, j-1, 0)
				dst.Set(i, j, 0, src.At(i, j, 0)-0.5*gx*invH)
				dst.Set(i, j, 1, src.At(i, j, 1)-0.5*gy*invH)
			}
		}
	})
	if err != nil {
		return err
	}
	vel.RotateReadWrite()
	return nil
}

// MeanAbsDivergence returns the mean over interior cells of the absolute
// divergence as computed by Init.
func MeanAbsDivergence(vel *field.Grid) float64 {
	n := vel.N
	h := 1 / float64(n)
	var sum float64
	for j := 1; j <= n; j++ {
		for i := 1; i <= n; i++ {
			dx := float64(vel.At(i+1, j, 0) - vel.At(i-1, j, 0))
			dy := float64(vel.At(i, j+1, 1) - vel.At(i, j-1, 1))
			sum += math.Abs(0.5 * h * (dx + dy))
		}
	}
	return sum / float64(n*n)
}
