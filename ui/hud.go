package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	N       int
	Tick    int64
	SimTime float64
	FPS     int32
	Scheme  string
	Paused  bool
	Pointer bool
}

// HUD renders the main heads-up display.
type HUD struct {
	paint *Painter
}

// NewHUD creates a new HUD.
func NewHUD() *HUD {
	return &HUD{paint: NewPainter()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Grid: %dx%d | Advection: %s", data.N, data.N, data.Scheme),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | t=%.2fs | FPS: %d", data.Tick, data.SimTime, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	} else if data.Pointer {
		status = "Injecting"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, h.paint.Style.Text)
}

// StatsPanel renders field diagnostics.
type StatsPanel struct {
	paint *Painter
	x, y  int32
	width int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{paint: NewPainter(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(s telemetry.TickStats) int32 {
	r := p.paint
	padding := r.Style.Pad
	height := r.Style.Line*8 + padding*2
	r.Panel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := r.Heading(x, p.y+padding, "Fields")
	y = r.Row(x, y, "Density total", fmt.Sprintf("%.3f", s.DensityTotal))
	y = r.Row(x, y, "Density range", fmt.Sprintf("[%.3f, %.3f]", s.DensityMin, s.DensityMax))
	y = r.Row(x, y, "Kinetic energy", fmt.Sprintf("%.4f", s.KineticEnergy))
	y = r.Row(x, y, "Max speed", fmt.Sprintf("%.3f", s.MaxSpeed))
	y = r.Row(x, y, "Speed p50/p90", fmt.Sprintf("%.3f / %.3f", s.SpeedP50, s.SpeedP90))
	y = r.LogMeter(x, y, "Mean |div|", s.MeanAbsDivergence, -8, -2, -4, p.width-padding*2)
	if s.NonFinite > 0 {
		rl.DrawText(fmt.Sprintf("%d non-finite cells", s.NonFinite), x, y, r.Style.Font, rl.Red)
	}
	return p.y + height
}

// PerfPanel renders the per-stage timing breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Stage Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("p95 %s  sd %s", stats.P95TickDuration.Round(time.Microsecond), stats.TickStdDev.Round(time.Microsecond)), x, y, 12, rl.LightGray)
	y += 14

	for _, phase := range telemetry.Phases {
		ps := stats.Phase[phase]
		if ps.Ticks == 0 {
			continue
		}
		avg, pct := ps.Avg, ps.Pct

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-17s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
