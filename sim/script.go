package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Script produces the pointer input for a tick of a run without a user.
type Script func(tick int64) Input

// Idle never presses the pointer.
func Idle(int64) Input { return Input{} }

// CircleStir drags the pointer around a circle of radius 0.25·N centered
// on the grid, one revolution per period ticks.
func CircleStir(n int, period int64) Script {
	c := float64(n+2) / 2
	r := 0.25 * float64(n)
	at := func(tick int64) (float32, float32) {
		a := 2 * math.Pi * float64(tick%period) / float64(period)
		return float32(c + r*math.Cos(a)), float32(c + r*math.Sin(a))
	}
	return func(tick int64) Input {
		x, y := at(tick)
		px, py := at(tick - 1)
		return Input{X: x, Y: y, PrevX: px, PrevY: py, Down: true}
	}
}

// LineSweep drags the pointer back and forth along the horizontal center
// line between 0.2·N and 0.8·N, one pass per period ticks.
func LineSweep(n int, period int64) Script {
	y := float32(n+2) / 2
	lo, hi := 0.2*float64(n), 0.8*float64(n)
	at := func(tick int64) float32 {
		phase := float64(tick%(2*period)) / float64(period)
		if phase > 1 {
			phase = 2 - phase
		}
		return float32(lo + (hi-lo)*phase)
	}
	return func(tick int64) Input {
		return Input{X: at(tick), Y: y, PrevX: at(tick - 1), PrevY: y, Down: true}
	}
}

var scripts = map[string]func(n int) Script{
	"idle":   func(int) Script { return Idle },
	"circle": func(n int) Script { return CircleStir(n, 240) },
	"sweep":  func(n int) Script { return LineSweep(n, 120) },
}

// ScriptNames lists the names accepted by ScriptByName.
func ScriptNames() []string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScriptByName returns a named script for resolution n.
func ScriptByName(name string, n int) (Script, error) {
	mk, ok := scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown script %q (want one of %v)", name, ScriptNames())
	}
	return mk(n), nil
}

// Run advances s by ticks ticks driven by script, calling observe (if not
// nil) after each one. It stops at the first error.
func Run(ctx context.Context, s *Simulation, script Script, ticks int64, observe func(*Simulation)) error {
	for i := int64(0); i < ticks; i++ {
		if err := s.Step(ctx, script(s.Tick())); err != nil {
			return err
		}
		if observe != nil {
			observe(s)
		}
	}
	return nil
}
