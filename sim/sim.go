// Package sim advances the fluid by one frame at a time.
//
// A Simulation owns five triple-buffered fields: density, velocity,
// divergence and one pressure field per projection. Each Step runs the
// stages in a fixed order:
//
//	inject (splat or carry) -> project -> advect velocity ->
//	project -> diffuse density -> advect density
//
// A Simulation is not safe for concurrent use. Presentation code must read
// Density() between Steps on the same goroutine.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/field"
	"github.com/pthm-cable/gridfluid/solver"
	"github.com/pthm-cable/gridfluid/telemetry"
)

// ErrSnapshotMismatch is returned by Restore when a snapshot does not fit
// the simulation's grid.
var ErrSnapshotMismatch = errors.New("sim: snapshot does not match grid")

// Input is the pointer state sampled for one tick, in grid coordinates.
type Input struct {
	X, Y         float32
	PrevX, PrevY float32
	Down         bool
}

// Constants are the tunable parameters read by every stage of a tick.
type Constants struct {
	DT                  float32
	Diffusion           float32
	DiffusionIterations int
	PressureIterations  int
	ZeroPressure        bool
	PressureDamping     float32
	Scheme              solver.Scheme
	SplatRadius         float32
	SplatAmount         float32
	ImpulseScale        float32
}

// ConstantsFromConfig extracts the per-tick constants from cfg.
func ConstantsFromConfig(cfg *config.Config) Constants {
	scheme := solver.SemiLagrangian
	if cfg.Derived.MacCormack {
		scheme = solver.MacCormack
	}
	return Constants{
		DT:                  cfg.Derived.DT32,
		Diffusion:           float32(cfg.Solver.Diffusion),
		DiffusionIterations: cfg.Solver.DiffusionIterations,
		PressureIterations:  cfg.Solver.PressureIterations,
		ZeroPressure:        cfg.Derived.ZeroPressure,
		PressureDamping:     float32(cfg.Solver.PressureDamping),
		Scheme:              scheme,
		SplatRadius:         cfg.Derived.SplatRadius,
		SplatAmount:         float32(cfg.Splat.Amount),
		ImpulseScale:        float32(cfg.Splat.ImpulseScale),
	}
}

// Simulation is the frame orchestrator.
type Simulation struct {
	n   int
	dev compute.Device

	consts  Constants
	pending *Constants

	density    *field.Buffered
	velocity   *field.Buffered
	divergence *field.Buffered
	pressure1  *field.Buffered
	pressure2  *field.Buffered

	advector  *solver.Advector
	projector *solver.Projector

	tick    int64
	simTime float64

	perf *telemetry.PerfCollector
}

// New allocates all fields for resolution n. Fields start at zero.
func New(n int, c Constants, dev compute.Device) (*Simulation, error) {
	s := &Simulation{n: n, dev: dev, consts: c}

	specs := []struct {
		dst    **field.Buffered
		name   string
		layout field.Layout
	}{
		{&s.density, "density", field.Scalar},
		{&s.velocity, "velocity", field.Vector},
		{&s.divergence, "divergence", field.Scalar},
		{&s.pressure1, "pressure1", field.Scalar},
		{&s.pressure2, "pressure2", field.Scalar},
	}
	for _, sp := range specs {
		f, err := field.NewBuffered(sp.name, n, sp.layout, nil)
		if err != nil {
			return nil, fmt.Errorf("allocating fields: %w", err)
		}
		*sp.dst = f
	}

	s.advector = solver.NewAdvector(c.Scheme)
	s.projector = &solver.Projector{}
	s.applyConstants()
	return s, nil
}

// NewFromConfig builds a simulation from cfg and writes the configured seed.
func NewFromConfig(cfg *config.Config, dev compute.Device) (*Simulation, error) {
	s, err := New(cfg.Grid.N, ConstantsFromConfig(cfg), dev)
	if err != nil {
		return nil, err
	}
	s.ApplySeed(cfg)

	bytes := 0
	for _, f := range s.fields() {
		bytes += f.Bytes()
	}
	slog.Info("simulation created",
		"n", s.n,
		"field_bytes", bytes,
		"scheme", s.consts.Scheme.String(),
		"seeded", cfg.Seed.Enabled,
		"seed_shape", cfg.Seed.Shape,
	)
	return s, nil
}

func (s *Simulation) fields() []*field.Buffered {
	return []*field.Buffered{s.density, s.velocity, s.divergence, s.pressure1, s.pressure2}
}

func (s *Simulation) applyConstants() {
	s.advector.Scheme = s.consts.Scheme
	s.projector.ZeroPressure = s.consts.ZeroPressure
	s.projector.Damping = s.consts.PressureDamping
}

// SetPerfCollector attaches a collector that times each stage.
func (s *Simulation) SetPerfCollector(p *telemetry.PerfCollector) { s.perf = p }

// Constants returns the constants that the next tick will use.
func (s *Simulation) Constants() Constants {
	if s.pending != nil {
		return *s.pending
	}
	return s.consts
}

// SetConstants stages c; it takes effect at the start of the next tick.
func (s *Simulation) SetConstants(c Constants) {
	s.pending = &c
}

// SeedCircle writes density and velocity to every interior cell closer than
// radius to (cx, cy), in all three buffers.
func (s *Simulation) SeedCircle(cx, cy, radius, density, vx, vy float32) {
	r2 := radius * radius
	for _, g := range []*field.Grid{s.density.Current, s.density.Scratch, s.density.Snapshot} {
		seedDisc(g, cx, cy, r2, density)
	}
	for _, g := range []*field.Grid{s.velocity.Current, s.velocity.Scratch, s.velocity.Snapshot} {
		seedDisc(g, cx, cy, r2, vx, vy)
	}
}

func seedDisc(g *field.Grid, cx, cy, r2 float32, values ...float32) {
	for j := 1; j <= g.N; j++ {
		dy := float32(j) - cy
		for i := 1; i <= g.N; i++ {
			dx := float32(i) - cx
			if dx*dx+dy*dy >= r2 {
				continue
			}
			for c, v := range values {
				g.Set(i, j, c, v)
			}
		}
	}
}

// Reset zeroes every field and the tick counter.
func (s *Simulation) Reset() {
	for _, f := range s.fields() {
		f.Reset()
	}
	s.tick = 0
	s.simTime = 0
}

// Step advances the simulation by one tick. ctx is checked only before the
// tick starts; once started, a tick runs to completion or fails at the
// first stage error. A failed stage does not rotate its fields.
func (s *Simulation) Step(ctx context.Context, in Input) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.pending != nil {
		s.consts = *s.pending
		s.pending = nil
		s.applyConstants()
	}
	c := s.consts

	s.perf.StartTick()
	defer s.perf.EndTick()

	s.perf.StartPhase(telemetry.PhaseInject)
	if err := s.inject(in, c); err != nil {
		return fmt.Errorf("inject: %w", err)
	}

	s.perf.StartPhase(telemetry.PhaseProjectVelocity)
	if err := s.projector.Project(s.dev, s.velocity, s.divergence, s.pressure1, c.PressureIterations); err != nil {
		return fmt.Errorf("project velocity: %w", err)
	}

	s.perf.StartPhase(telemetry.PhaseAdvectVelocity)
	if err := s.advector.Advect(s.dev, s.velocity, s.velocity.Current, c.DT); err != nil {
		return fmt.Errorf("advect velocity: %w", err)
	}
	s.velocity.RotateReadWrite()

	s.perf.StartPhase(telemetry.PhaseReproject)
	if err := s.projector.Project(s.dev, s.velocity, s.divergence, s.pressure2, c.PressureIterations); err != nil {
		return fmt.Errorf("reproject velocity: %w", err)
	}

	s.perf.StartPhase(telemetry.PhaseDiffuseDensity)
	if err := solver.Diffuse(s.dev, s.density, c.DT, c.Diffusion, c.DiffusionIterations); err != nil {
		return fmt.Errorf("diffuse density: %w", err)
	}

	s.perf.StartPhase(telemetry.PhaseAdvectDensity)
	if err := s.advector.Advect(s.dev, s.density, s.velocity.Current, c.DT); err != nil {
		return fmt.Errorf("advect density: %w", err)
	}
	s.density.RotateReadWrite()

	s.tick++
	s.simTime += float64(c.DT)
	return nil
}

// inject splats at the pointer when it is down. Otherwise, or when the
// splat radius is zero, both fields are carried through unchanged so every
// tick rotates them the same number of times.
func (s *Simulation) inject(in Input, c Constants) error {
	if in.Down {
		applied, err := solver.Splat(s.dev, s.density, s.velocity, solver.SplatParams{
			X:      in.X,
			Y:      in.Y,
			VX:     (in.X - in.PrevX) * c.ImpulseScale,
			VY:     (in.Y - in.PrevY) * c.ImpulseScale,
			Radius: c.SplatRadius,
			Amount: c.SplatAmount,
		})
		if err != nil {
			return err
		}
		if applied {
			s.density.RotateReadWrite()
			s.velocity.RotateReadWrite()
			return nil
		}
	}

	if err := solver.Carry(s.dev, s.density, s.velocity); err != nil {
		return err
	}
	s.density.RotateReadWrite()
	s.velocity.RotateReadWrite()
	return nil
}

// N returns the grid resolution.
func (s *Simulation) N() int { return s.n }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 { return s.tick }

// SimTime returns the simulated seconds elapsed.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Density returns the current density grid. It is replaced by the next Step.
func (s *Simulation) Density() *field.Grid { return s.density.Current }

// Velocity returns the current velocity grid. It is replaced by the next Step.
func (s *Simulation) Velocity() *field.Grid { return s.velocity.Current }

// Stats measures the current fields.
func (s *Simulation) Stats() telemetry.TickStats {
	return telemetry.Measure(s.tick, s.simTime, s.density.Current, s.velocity.Current)
}

// Snapshot copies the current density and velocity grids.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		N:        s.n,
		Tick:     s.tick,
		SimTime:  s.simTime,
		Density:  append([]float32(nil), s.density.Current.Data...),
		Velocity: append([]float32(nil), s.velocity.Current.Data...),
	}
}

// Restore loads a snapshot into all three buffers of density and velocity,
// clears the projection scratch fields and resumes the tick counter.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if snap.N != s.n ||
		len(snap.Density) != len(s.density.Current.Data) ||
		len(snap.Velocity) != len(s.velocity.Current.Data) {
		return fmt.Errorf("%w: snapshot n=%d, grid n=%d", ErrSnapshotMismatch, snap.N, s.n)
	}
	for _, f := range s.fields() {
		f.Reset()
	}
	for _, g := range []*field.Grid{s.density.Current, s.density.Scratch, s.density.Snapshot} {
		copy(g.Data, snap.Density)
	}
	for _, g := range []*field.Grid{s.velocity.Current, s.velocity.Scratch, s.velocity.Snapshot} {
		copy(g.Data, snap.Velocity)
	}
	s.tick = snap.Tick
	s.simTime = snap.SimTime
	return nil
}
