package telemetry

import (
	"testing"
	"time"
)

// runTicks times n ticks with fixed sleeps per phase.
func runTicks(pc *PerfCollector, n int, phases map[Phase]time.Duration) {
	for i := 0; i < n; i++ {
		pc.StartTick()
		for _, ph := range Phases {
			if d, ok := phases[ph]; ok {
				pc.StartPhase(ph)
				time.Sleep(d)
			}
		}
		pc.EndTick()
	}
}

func TestPerfCollectorTracksPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, map[Phase]time.Duration{
		PhaseProjectVelocity: 100 * time.Microsecond,
		PhaseAdvectDensity:   200 * time.Microsecond,
	})

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 || stats.TicksPerSecond <= 0 {
		t.Fatalf("avg tick %v, %v ticks/s", stats.AvgTickDuration, stats.TicksPerSecond)
	}
	for _, ph := range []Phase{PhaseProjectVelocity, PhaseAdvectDensity} {
		if got := stats.Phase[ph].Ticks; got != 5 {
			t.Errorf("%s ran in %d ticks, want 5", ph, got)
		}
	}
	if stats.Phase[PhaseInject].Ticks != 0 {
		t.Error("inject never started but was counted")
	}
}

func TestPerfCollectorOrderStatistics(t *testing.T) {
	pc := NewPerfCollector(8)
	runTicks(pc, 8, map[Phase]time.Duration{PhaseInject: 50 * time.Microsecond})

	s := pc.Stats()
	if !(s.MinTickDuration <= s.AvgTickDuration && s.AvgTickDuration <= s.MaxTickDuration) {
		t.Errorf("min %v avg %v max %v out of order", s.MinTickDuration, s.AvgTickDuration, s.MaxTickDuration)
	}
	if !(s.MinTickDuration <= s.P95TickDuration && s.P95TickDuration <= s.MaxTickDuration) {
		t.Errorf("p95 %v outside [%v, %v]", s.P95TickDuration, s.MinTickDuration, s.MaxTickDuration)
	}
	if s.TickStdDev < 0 {
		t.Errorf("negative stddev %v", s.TickStdDev)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	runTicks(pc, 3, map[Phase]time.Duration{PhaseReproject: 2 * time.Millisecond})
	runTicks(pc, 3, map[Phase]time.Duration{PhaseInject: 0})

	stats := pc.Stats()
	if stats.Phase[PhaseReproject].Ticks != 0 {
		t.Error("old ticks should have left the window")
	}
	if stats.Phase[PhaseInject].Ticks != 3 {
		t.Errorf("inject ticks = %d, want 3", stats.Phase[PhaseInject].Ticks)
	}
	if stats.AvgTickDuration >= 2*time.Millisecond {
		t.Errorf("avg %v still includes evicted ticks", stats.AvgTickDuration)
	}
}

func TestPerfCollectorPhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	runTicks(pc, 5, map[Phase]time.Duration{
		PhaseInject:    10 * time.Microsecond,
		PhaseReproject: 500 * time.Microsecond,
	})

	stats := pc.Stats()
	fast := stats.Phase[PhaseInject].Pct
	slow := stats.Phase[PhaseReproject].Pct
	if slow <= fast {
		t.Errorf("expected reproject (%v%%) > inject (%v%%)", slow, fast)
	}
	if fast+slow > 100.01 {
		t.Errorf("phase shares sum to %v%%", fast+slow)
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 || row.ReprojectPct != slow || row.InjectPct != fast {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector reported %+v", stats)
	}
}

func TestPerfCollectorNilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhaseInject)
	pc.EndTick()
	pc.RecordPhase(PhaseTelemetry, time.Millisecond)
	pc.RecordFrame()
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 80 {
		t.Errorf("expected FPS in (0, 80] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfCollectorRecordPhaseAfterTick(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.RecordPhase(PhaseTelemetry, time.Millisecond)
	if pc.Stats().AvgTickDuration != 0 {
		t.Fatal("RecordPhase before first tick should be dropped")
	}

	runTicks(pc, 1, map[Phase]time.Duration{PhaseInject: 0})
	before := pc.Stats()

	pc.RecordPhase(PhaseTelemetry, 5*time.Millisecond)
	after := pc.Stats()

	if got := after.Phase[PhaseTelemetry].Avg; got != 5*time.Millisecond {
		t.Errorf("telemetry avg = %v, want 5ms", got)
	}
	if after.AvgTickDuration != before.AvgTickDuration+5*time.Millisecond {
		t.Errorf("tick duration %v, want %v", after.AvgTickDuration, before.AvgTickDuration+5*time.Millisecond)
	}
	if after.Phase[PhaseInject].Avg != before.Phase[PhaseInject].Avg {
		t.Error("RecordPhase must not extend the last running phase")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseReproject.String() != "reproject" || Phase(200).String() != "unknown" {
		t.Error("unexpected phase names")
	}
}
