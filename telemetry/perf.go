package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed stage of a tick.
type Phase uint8

// Phases of a tick, in execution order. Telemetry runs between ticks and
// is charged to the tick before it.
const (
	PhaseInject Phase = iota
	PhaseProjectVelocity
	PhaseAdvectVelocity
	PhaseReproject
	PhaseDiffuseDensity
	PhaseAdvectDensity
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"inject", "project_velocity", "advect_velocity", "reproject",
	"diffuse_density", "advect_density", "telemetry",
}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases lists every phase in execution order.
var Phases = []Phase{
	PhaseInject, PhaseProjectVelocity, PhaseAdvectVelocity,
	PhaseReproject, PhaseDiffuseDensity, PhaseAdvectDensity,
	PhaseTelemetry,
}

type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	ran    [numPhases]bool
}

// PerfCollector keeps a ring of per-phase tick timings. The zero window
// defaults to 60 ticks. A nil collector ignores every timing call.
type PerfCollector struct {
	ring   []tickSample
	next   int
	filled int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	running    Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickSample, window)}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.running] += now.Sub(p.phaseStart)
		p.cur.ran[p.running] = true
		p.inPhase = false
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	if p == nil {
		return
	}
	p.cur = tickSample{}
	p.inPhase = false
	p.tickStart = time.Now()
}

// StartPhase closes the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.running, p.inPhase, p.phaseStart = ph, true, now
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	if p == nil {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

// RecordPhase charges d to ph in the most recently stored tick. Dropped
// before the first tick.
func (p *PerfCollector) RecordPhase(ph Phase, d time.Duration) {
	if p == nil || p.filled == 0 {
		return
	}
	last := &p.ring[(p.next-1+len(p.ring))%len(p.ring)]
	last.phases[ph] += d
	last.ran[ph] = true
	last.total += d
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStat is one phase's share of the window.
type PhaseStat struct {
	Avg   time.Duration
	Pct   float64 // of the average tick
	Ticks int     // window ticks in which the phase ran
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration
	TickStdDev      time.Duration

	Phase [numPhases]PhaseStat

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var out PerfStats
	out.FrameDuration = p.frame
	if p.frame > 0 {
		out.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return out
	}

	totals := make([]float64, p.filled)
	var sums [numPhases]time.Duration
	for i, s := range p.ring[:p.filled] {
		totals[i] = float64(s.total)
		for ph := range sums {
			sums[ph] += s.phases[ph]
			if s.ran[ph] {
				out.Phase[ph].Ticks++
			}
		}
	}

	mean, std := stat.MeanStdDev(totals, nil)
	if p.filled < 2 {
		std = 0
	}
	sort.Float64s(totals)
	out.AvgTickDuration = time.Duration(mean)
	out.TickStdDev = time.Duration(std)
	out.MinTickDuration = time.Duration(totals[0])
	out.MaxTickDuration = time.Duration(totals[len(totals)-1])
	out.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))

	n := time.Duration(p.filled)
	for ph := range out.Phase {
		out.Phase[ph].Avg = sums[ph] / n
		if mean > 0 {
			out.Phase[ph].Pct = float64(out.Phase[ph].Avg) / mean * 100
		}
	}
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
	}
	return out
}

// LogStats logs the window at info level. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, ph := range Phases {
		if pct := s.Phase[ph].Pct; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd          int64   `csv:"window_end"`
	AvgTickUS          int64   `csv:"avg_tick_us"`
	MinTickUS          int64   `csv:"min_tick_us"`
	MaxTickUS          int64   `csv:"max_tick_us"`
	P95TickUS          int64   `csv:"p95_tick_us"`
	StdDevTickUS       int64   `csv:"stddev_tick_us"`
	TicksPerSec        float64 `csv:"ticks_per_sec"`
	FPS                float64 `csv:"fps"`
	InjectPct          float64 `csv:"inject_pct"`
	ProjectVelocityPct float64 `csv:"project_velocity_pct"`
	AdvectVelocityPct  float64 `csv:"advect_velocity_pct"`
	ReprojectPct       float64 `csv:"reproject_pct"`
	DiffuseDensityPct  float64 `csv:"diffuse_density_pct"`
	AdvectDensityPct   float64 `csv:"advect_density_pct"`
	TelemetryPct       float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:          windowEnd,
		AvgTickUS:          s.AvgTickDuration.Microseconds(),
		MinTickUS:          s.MinTickDuration.Microseconds(),
		MaxTickUS:          s.MaxTickDuration.Microseconds(),
		P95TickUS:          s.P95TickDuration.Microseconds(),
		StdDevTickUS:       s.TickStdDev.Microseconds(),
		TicksPerSec:        s.TicksPerSecond,
		FPS:                s.FPS,
		InjectPct:          s.Phase[PhaseInject].Pct,
		ProjectVelocityPct: s.Phase[PhaseProjectVelocity].Pct,
		AdvectVelocityPct:  s.Phase[PhaseAdvectVelocity].Pct,
		ReprojectPct:       s.Phase[PhaseReproject].Pct,
		DiffuseDensityPct:  s.Phase[PhaseDiffuseDensity].Pct,
		AdvectDensityPct:   s.Phase[PhaseAdvectDensity].Pct,
		TelemetryPct:       s.Phase[PhaseTelemetry].Pct,
	}
}
