package sim

import (
	"context"
	"math"
	"testing"

	"github.com/pthm-cable/gridfluid/compute"
)

func TestScriptsStayInsideGrid(t *testing.T) {
	const n = 64
	for _, name := range ScriptNames() {
		script, err := ScriptByName(name, n)
		if err != nil {
			t.Fatal(err)
		}
		for tick := int64(0); tick < 600; tick++ {
			in := script(tick)
			for _, v := range []float32{in.X, in.Y, in.PrevX, in.PrevY} {
				if v < 0 || v > n+1 {
					t.Fatalf("%s tick %d: coordinate %v outside [0, %d]", name, tick, v, n+1)
				}
			}
		}
	}
}

func TestCircleStirMovesSmoothly(t *testing.T) {
	const n = 128
	script := CircleStir(n, 240)
	// Arc length per tick: 2*pi*r/period.
	step := 2 * math.Pi * 0.25 * n / 240
	for tick := int64(1); tick < 480; tick++ {
		in := script(tick)
		d := math.Hypot(float64(in.X-in.PrevX), float64(in.Y-in.PrevY))
		if math.Abs(d-step) > 0.05*step {
			t.Fatalf("tick %d: moved %v, want about %v", tick, d, step)
		}
		if !in.Down {
			t.Fatal("circle stir must keep the pointer down")
		}
	}
}

func TestLineSweepTurnsAround(t *testing.T) {
	script := LineSweep(100, 10)
	if got := script(0).X; got != 20 {
		t.Errorf("start x = %v, want 20", got)
	}
	if got := script(10).X; got != 80 {
		t.Errorf("turn x = %v, want 80", got)
	}
	if got := script(20).X; got != 20 {
		t.Errorf("return x = %v, want 20", got)
	}
}

func TestScriptByNameUnknown(t *testing.T) {
	if _, err := ScriptByName("spiral", 32); err == nil {
		t.Error("expected error for unknown script")
	}
}

func TestIdleScriptKeepsZeroFieldsZero(t *testing.T) {
	s := mustNew(t, 16, testConstants(), compute.Serial{})
	for tick := int64(0); tick < 3; tick++ {
		if err := s.Step(context.Background(), Idle(tick)); err != nil {
			t.Fatal(err)
		}
	}
	if !allZero(s.density, s.velocity) {
		t.Error("idle script changed zero fields")
	}
}

func TestRunObservesEveryTick(t *testing.T) {
	s := mustNew(t, 16, testConstants(), compute.Serial{})
	var seen []int64
	err := Run(context.Background(), s, CircleStir(16, 20), 5, func(s *Simulation) {
		seen = append(seen, s.Tick())
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 5 || seen[0] != 1 || seen[4] != 5 {
		t.Errorf("observed ticks %v, want 1..5", seen)
	}
	if s.Stats().DensityTotal <= 0 {
		t.Error("circle stir injected no density")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := mustNew(t, 16, testConstants(), compute.Serial{})
	ctx, cancel := context.WithCancel(context.Background())
	err := Run(ctx, s, Idle, 10, func(s *Simulation) {
		if s.Tick() == 2 {
			cancel()
		}
	})
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if s.Tick() != 2 {
		t.Errorf("tick = %d, want 2", s.Tick())
	}
}
