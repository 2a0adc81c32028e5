package solver

import (
	"fmt"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/field"
)

// Scheme selects the advection scheme.
type Scheme int

const (
	SemiLagrangian Scheme = iota
	MacCormack
)

func (s Scheme) String() string {
	switch s {
	case SemiLagrangian:
		return "semi_lagrangian"
	case MacCormack:
		return "maccormack"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// Advector moves a field of any supported layout along a velocity field.
type Advector struct {
	Scheme Scheme
}

// NewAdvector returns an advector using the given scheme.
func NewAdvector(s Scheme) *Advector {
	return &Advector{Scheme: s}
}

// TraceBack follows velocity (vx, vy) backwards from (x, y) for dt0 grid
// units and clamps the result to [0.5, n+0.5].
func TraceBack(x, y, vx, vy, dt0 float32, n int) (float32, float32) {
	return clampTrace(x-dt0*vx, n), clampTrace(y-dt0*vy, n)
}

func clampTrace(v float32, n int) float32 {
	lo, hi := float32(0.5), float32(n)+0.5
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Advect writes src advected by vel over dt into src.Scratch. vel is read
// only and may be src's own Current. The caller rotates src.
func (a *Advector) Advect(dev compute.Device, src *field.Buffered, vel *field.Grid, dt float32) error {
	if !src.Layout().Valid() {
		return fmt.Errorf("%w: %s is %v", ErrUnsupportedLayout, src.Name, src.Layout())
	}
	if vel.Layout() != field.Vector {
		return fmt.Errorf("%w: velocity is %v", ErrUnsupportedLayout, vel.Layout())
	}
	n := src.N()
	if vel.N != n {
		return fmt.Errorf("%w: %s is %d, velocity is %d", field.ErrShape, src.Name, n, vel.N)
	}
	switch a.Scheme {
	case SemiLagrangian, MacCormack:
	default:
		return fmt.Errorf("solver: unknown advection scheme %v", a.Scheme)
	}

	in, out := src.Current, src.Scratch
	comps := in.Components
	dt0 := dt * float32(n)
	corrected := a.Scheme == MacCormack

	return dev.Dispatch(n, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			for i := 1; i <= n; i++ {
				bx, by := TraceBack(float32(i), float32(j), vel.At(i, j, 0), vel.At(i, j, 1), dt0, n)

				if !corrected {
					for c := 0; c < comps; c++ {
						out.Set(i, j, c, in.Sample(bx, by, c))
					}
					continue
				}

				// Forward trace from the departure point with the velocity found there.
				fx, fy := TraceBack(bx, by, -vel.Sample(bx, by, 0), -vel.Sample(bx, by, 1), dt0, n)
				for c := 0; c < comps; c++ {
					back := in.Sample(bx, by, c)
					fwd := in.Sample(fx, fy, c)
					out.Set(i, j, c, back+0.5*(fwd-back))
				}
			}
		}
	})
}
