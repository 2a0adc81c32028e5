package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/game"
	"github.com/pthm-cable/gridfluid/sim"
	"github.com/pthm-cable/gridfluid/stream"
)

func main() {
	os.Exit(run())
}

// run holds the body of main so deferred cleanup finishes before the
// process exits with the returned code.
func run() int {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	restore := flag.String("restore", "", "Snapshot file to resume from")
	listen := flag.String("listen", "", "Address to stream density frames over websocket, e.g. :8080 (empty = off)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	scriptName := flag.String("script", "idle", "Headless pointer script: "+strings.Join(sim.ScriptNames(), ", "))

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	script, err := sim.ScriptByName(*scriptName, cfg.Grid.N)
	if err != nil {
		slog.Error("invalid script", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *stream.Hub
	if *listen != "" {
		hub = stream.NewHub()
		srv := serveStream(*listen, hub)
		defer func() {
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opts := game.Options{
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		RestorePath:    *restore,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		Hub:            hub,
		Script:         script,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			return 1
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"n", cfg.Grid.N,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
			"listen", *listen,
			"script", *scriptName,
		)

		return runHeadless(ctx, g, int64(*maxTicks))
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Grid Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		if err := g.Update(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			slog.Error("simulation failed", "tick", g.Tick(), "error", err)
			return 1
		}
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
	return 0
}

// headlessRunner is the part of game.Game the headless loop drives.
type headlessRunner interface {
	UpdateHeadless(ctx context.Context) error
	Tick() int64
}

// runHeadless updates g until maxTicks (0 = unlimited), cancellation or a
// failed tick, and returns the process exit code.
func runHeadless(ctx context.Context, g headlessRunner, maxTicks int64) int {
	for {
		if err := g.UpdateHeadless(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("interrupted", "tick", g.Tick())
				return 0
			}
			slog.Error("simulation failed", "tick", g.Tick(), "error", err)
			return 1
		}

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}

// serveStream starts the websocket endpoint at /ws in the background.
func serveStream(addr string, hub *stream.Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		slog.Info("streaming density frames", "addr", addr, "path", "/ws")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server failed", "error", err)
		}
	}()
	return srv
}
