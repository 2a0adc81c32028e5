package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/sim"
	"github.com/pthm-cable/gridfluid/solver"
)

// ControlAction is what the user asked for on this frame.
type ControlAction struct {
	Constants sim.Constants
	Changed   bool
	Reset     bool
}

// ControlPanel edits simulation constants with raygui sliders. Edits are
// returned to the caller, which stages them for the next tick.
type ControlPanel struct {
	paint   *Painter
	x, y    int32
	width   int32
	visible bool
	n       int
}

// NewControlPanel creates a new control panel for a grid of resolution n.
func NewControlPanel(x, y, width int32, n int) *ControlPanel {
	return &ControlPanel{
		paint: NewPainter(),
		x:     x,
		y:     y,
		width: width,
		n:     n,
	}
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point is over the visible panel, so
// pointer presses there are not treated as splats.
func (c *ControlPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px <= float32(c.x+c.width) &&
		py >= float32(c.y) && py <= float32(c.y+c.height())
}

func (c *ControlPanel) height() int32 {
	return 7*44 + 2*36 + c.paint.Style.Pad*3
}

// Draw renders the panel and returns the user's edits.
func (c *ControlPanel) Draw(cur sim.Constants) ControlAction {
	act := ControlAction{Constants: cur}
	if !c.visible {
		return act
	}

	r := c.paint
	pad := r.Style.Pad
	r.Panel(c.x, c.y, c.width, c.height())

	x := float32(c.x + pad)
	y := float32(c.y + pad)
	w := float32(c.width - pad*2 - 60)
	k := &act.Constants

	slider := func(label string, value, lo, hi float32, format string) float32 {
		rl.DrawText(label, int32(x), int32(y), r.Style.Font, r.Style.Text)
		y += 16
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w, Height: 18}, "", "", value, lo, hi)
		rl.DrawText(fmt.Sprintf(format, v), int32(x+w+8), int32(y+2), r.Style.Font, r.Style.Data)
		y += 28
		return v
	}

	if v := int(slider("Pressure iterations", float32(k.PressureIterations), 0, 200, "%.0f")); v != k.PressureIterations {
		k.PressureIterations = v
		act.Changed = true
	}
	if v := int(slider("Diffusion iterations", float32(k.DiffusionIterations), 0, 60, "%.0f")); v != k.DiffusionIterations {
		k.DiffusionIterations = v
		act.Changed = true
	}
	if v := slider("Time step", k.DT, 0.001, 0.05, "%.3f"); v != k.DT {
		k.DT = v
		act.Changed = true
	}

	// Diffusion spans decades, so the slider works on log10.
	logDiff := float32(-6)
	if k.Diffusion > 0 {
		logDiff = float32(math.Log10(float64(k.Diffusion)))
	}
	if v := slider("Diffusion (log10)", logDiff, -6, -1, "%.1f"); v != logDiff {
		k.Diffusion = float32(math.Pow(10, float64(v)))
		if v <= -6 {
			k.Diffusion = 0
		}
		act.Changed = true
	}
	if v := slider("Splat radius", k.SplatRadius, 0, float32(c.n)/8, "%.1f"); v != k.SplatRadius {
		k.SplatRadius = v
		act.Changed = true
	}
	if v := slider("Splat amount", k.SplatAmount, 0, 5, "%.2f"); v != k.SplatAmount {
		k.SplatAmount = v
		act.Changed = true
	}
	if v := slider("Impulse scale", k.ImpulseScale, 0, 1, "%.2f"); v != k.ImpulseScale {
		k.ImpulseScale = v
		act.Changed = true
	}

	half := (float32(c.width) - float32(pad)*3) / 2
	scheme := "Semi-Lagrangian"
	if k.Scheme == solver.MacCormack {
		scheme = "MacCormack"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 28}, scheme) {
		if k.Scheme == solver.MacCormack {
			k.Scheme = solver.SemiLagrangian
		} else {
			k.Scheme = solver.MacCormack
		}
		act.Changed = true
	}
	reset := "Pressure: zero"
	if !k.ZeroPressure {
		reset = "Pressure: warm"
	}
	if gui.Button(rl.Rectangle{X: x + half + float32(pad), Y: y, Width: half, Height: 28}, reset) {
		k.ZeroPressure = !k.ZeroPressure
		act.Changed = true
	}
	y += 36

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 28}, "Reset fields") {
		act.Reset = true
	}

	return act
}
