package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/sim"
)

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.resetFields()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.saveSnapshot(nil)
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if ov := g.overlays.HandleKey(key); ov != nil {
			slog.Debug("overlay toggled", "overlay", ov.ID, "enabled", ov.On)
		}
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := screenSize()
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
	g.statsPanel.SetPosition(int32(w)-290, 10)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Right drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(d.X, d.Y)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		g.camera.ZoomAt(1+wheel*0.1, m.X, m.Y)
	}

	cx, cy := g.screenWidth/2, g.screenHeight/2
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomAt(1.25, cx, cy)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomAt(0.8, cx, cy)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// pointerInput samples the left mouse button for this tick. Presses over
// the control panel do not inject. The first tick of a press reports no
// motion so the splat carries no impulse from a stale position.
func (g *Game) pointerInput() sim.Input {
	m := rl.GetMousePosition()
	gx, gy := g.camera.ScreenToGrid(m.X, m.Y)
	// Texture pixel k covers [k, k+1] on screen and shows cell k+1.
	gx += 0.5
	gy += 0.5

	down := rl.IsMouseButtonDown(rl.MouseButtonLeft) && !g.controls.Contains(m.X, m.Y)

	prevX, prevY := gx, gy
	if g.pointerValid && g.pointer.Down {
		prevX, prevY = g.pointer.X, g.pointer.Y
	}

	g.pointer = sim.Input{X: gx, Y: gy, PrevX: prevX, PrevY: prevY, Down: down}
	g.pointerValid = true
	return g.pointer
}

// resetFields clears the fields and re-applies the configured seed.
func (g *Game) resetFields() {
	g.sim.Reset()
	g.sim.ApplySeed(g.cfg)
	g.bookmarkDetector = newBookmarkDetector()
	g.lastStats = g.sim.Stats()
}
