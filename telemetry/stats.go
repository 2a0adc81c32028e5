package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"github.com/pthm-cable/gridfluid/field"
	"github.com/pthm-cable/gridfluid/solver"
)

// TickStats holds field diagnostics sampled after a tick.
type TickStats struct {
	Tick    int64   `csv:"tick"`
	SimTime float64 `csv:"sim_time"`

	// Density (conserved up to boundary loss and clamping of traces)
	DensityTotal float64 `csv:"density_total"`
	DensityMin   float64 `csv:"density_min"`
	DensityMax   float64 `csv:"density_max"`

	// Velocity
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxSpeed      float64 `csv:"max_speed"`
	SpeedP50      float64 `csv:"speed_p50"`
	SpeedP90      float64 `csv:"speed_p90"`

	// Incompressibility residual
	MeanAbsDivergence float64 `csv:"mean_abs_divergence"`

	// NaN or Inf cells across density and velocity
	NonFinite int `csv:"non_finite"`
}

// Measure computes TickStats from the current density and velocity grids.
func Measure(tick int64, simTime float64, density, velocity *field.Grid) TickStats {
	lo, hi := density.MinMax(0)
	speeds := speeds(velocity)
	sort.Float64s(speeds)

	return TickStats{
		Tick:              tick,
		SimTime:           simTime,
		DensityTotal:      density.Sum(0),
		DensityMin:        float64(lo),
		DensityMax:        float64(hi),
		KineticEnergy:     0.5 * velocity.SumSquares(),
		MaxSpeed:          float64(velocity.MaxMagnitude()),
		SpeedP50:          Percentile(speeds, 0.5),
		SpeedP90:          Percentile(speeds, 0.9),
		MeanAbsDivergence: solver.MeanAbsDivergence(velocity),
		NonFinite:         density.CountNonFinite() + velocity.CountNonFinite(),
	}
}

func speeds(velocity *field.Grid) []float64 {
	out := make([]float64, 0, velocity.N*velocity.N)
	for j := 1; j <= velocity.N; j++ {
		row := velocity.Interior(j)
		for k := 0; k+1 < len(row); k += velocity.Components {
			vx, vy := float64(row[k]), float64(row[k+1])
			out = append(out, math.Sqrt(vx*vx+vy*vy))
		}
	}
	return out
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Float64("sim_time", s.SimTime),
		slog.Float64("density_total", s.DensityTotal),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("mean_abs_div", s.MeanAbsDivergence),
		slog.Int("non_finite", s.NonFinite),
	)
}

// LogStats logs the stats at info level, or warn when non-finite values appear.
func (s TickStats) LogStats() {
	if s.NonFinite > 0 {
		slog.Warn("stats", "fields", s)
		return
	}
	slog.Info("stats", "fields", s)
}
