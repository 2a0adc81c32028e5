package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/renderer"
	"github.com/pthm-cable/gridfluid/ui"
)

const controlsLegend = "LMB: inject | RMB: pan | Wheel: zoom | Space: pause | Tab: controls | P: perf | R: reset | S: snapshot | </>: speed"

// Draw renders the game.
func (g *Game) Draw() {
	if g.overlays.Enabled(ui.OverlaySpeed) {
		g.density.UpdateSpeed(g.sim.Velocity())
	} else {
		g.density.Update(g.sim.Density())
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.density.Draw(g.camera)
	if g.overlays.Enabled(ui.OverlayVelocity) {
		g.velocity.Draw(g.camera, g.sim.Velocity())
	}
	if g.overlays.Enabled(ui.OverlayBorder) {
		renderer.DrawBorder(g.camera, g.sim.N(), rl.DarkGray)
	}

	c := g.sim.Constants()
	g.hud.Draw(ui.HUDData{
		Title:   "Grid Fluid",
		N:       g.sim.N(),
		Tick:    g.sim.Tick(),
		SimTime: g.sim.SimTime(),
		FPS:     rl.GetFPS(),
		Scheme:  c.Scheme.String(),
		Paused:  g.paused,
		Pointer: g.pointer.Down,
	})
	g.statsPanel.Draw(g.lastStats)

	if g.controls.IsVisible() {
		act := g.controls.Draw(c)
		if act.Changed {
			g.sim.SetConstants(act.Constants)
		}
		if act.Reset {
			g.resetFields()
		}
	} else if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	g.hud.DrawControls(int32(g.screenHeight)-20, g.overlays.Legend())
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	rl.EndDrawing()
}
