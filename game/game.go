// Package game runs the simulation loop, either in a raylib window or
// headless.
package game

import (
	"context"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/camera"
	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/renderer"
	"github.com/pthm-cable/gridfluid/sim"
	"github.com/pthm-cable/gridfluid/stream"
	"github.com/pthm-cable/gridfluid/telemetry"
	"github.com/pthm-cable/gridfluid/ui"
)

// Options holds runtime options for game initialization.
type Options struct {
	LogStats       bool
	OutputDir      string
	SnapshotDir    string // Where bookmark snapshots go; empty disables them
	RestorePath    string // Snapshot to resume from
	Headless       bool
	StepsPerUpdate int         // Ticks per Update call
	Hub            *stream.Hub // Optional frame stream
	Script         sim.Script  // Headless pointer input; nil means idle
}

// Game holds the complete application state.
type Game struct {
	cfg  *config.Config
	pool *compute.Pool
	sim  *sim.Simulation

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	bookmarkDetector *telemetry.BookmarkDetector
	lastStats        telemetry.TickStats
	logStats         bool
	snapshotDir      string
	hub              *stream.Hub

	// Rendering (nil when headless)
	camera     *camera.Camera
	density    *renderer.DensityRenderer
	velocity   *renderer.VelocityRenderer
	overlays   *ui.Overlays
	hud        *ui.HUD
	statsPanel *ui.StatsPanel
	perfPanel  *ui.PerfPanel
	controls   *ui.ControlPanel

	// Pointer state in grid coordinates
	pointer      sim.Input
	pointerValid bool

	// State
	script         sim.Script
	headless       bool
	paused         bool
	showPerf       bool
	stepsPerUpdate int

	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the simulation described by cfg. In windowed
// mode it must be called after rl.InitWindow.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	pool := compute.NewPool(cfg.Compute.Workers, cfg.Compute.TileDim)

	s, err := sim.NewFromConfig(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating simulation: %w", err)
	}

	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := s.Restore(snap); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("restored snapshot", "path", opts.RestorePath, "tick", snap.Tick)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	if opts.Script == nil {
		opts.Script = sim.Idle
	}

	g := &Game{
		cfg:              cfg,
		pool:             pool,
		sim:              s,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager:    om,
		bookmarkDetector: newBookmarkDetector(),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		hub:              opts.Hub,
		script:           opts.Script,
		headless:         opts.Headless,
		stepsPerUpdate:   steps,
		screenWidth:      cfg.Derived.ScreenW32,
		screenHeight:     cfg.Derived.ScreenH32,
	}
	s.SetPerfCollector(g.perfCollector)
	g.lastStats = s.Stats()

	if !g.headless {
		n := cfg.Grid.N
		g.camera = camera.New(g.screenWidth, g.screenHeight, n)
		g.density = renderer.NewDensityRenderer(n)
		g.velocity = renderer.NewVelocityRenderer(n)
		g.overlays = ui.NewOverlays()
		g.hud = ui.NewHUD()
		g.statsPanel = ui.NewStatsPanel(int32(g.screenWidth)-290, 10, 280)
		g.perfPanel = ui.NewPerfPanel(10, 110)
		g.controls = ui.NewControlPanel(10, 110, 300, n)
	}

	return g, nil
}

// Update handles input and runs stepsPerUpdate ticks unless paused.
func (g *Game) Update(ctx context.Context) error {
	g.perfCollector.RecordFrame()
	g.handleInput()
	if g.paused {
		return nil
	}
	in := g.pointerInput()
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(ctx, in); err != nil {
			return err
		}
		// Only the first tick of a batch sees the pointer motion.
		in.PrevX, in.PrevY = in.X, in.Y
	}
	return nil
}

// UpdateHeadless runs stepsPerUpdate ticks driven by the input script.
func (g *Game) UpdateHeadless(ctx context.Context) error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(ctx, g.script(g.sim.Tick())); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) step(ctx context.Context, in sim.Input) error {
	if err := g.sim.Step(ctx, in); err != nil {
		return err
	}
	g.afterTick()
	return nil
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int64 {
	return g.sim.Tick()
}

// Sim exposes the underlying simulation.
func (g *Game) Sim() *sim.Simulation {
	return g.sim
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.density != nil {
		g.density.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.pool.Close()
}

// screenSize returns the current window size in pixels.
func screenSize() (float32, float32) {
	return float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
}
