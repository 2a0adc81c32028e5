package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/gridfluid/telemetry"
)

func newBookmarkDetector() *telemetry.BookmarkDetector {
	return telemetry.NewBookmarkDetector(10)
}

// afterTick samples stats, flushes perf windows and streams frames on
// their configured intervals.
func (g *Game) afterTick() {
	tick := g.sim.Tick()
	cfg := g.cfg

	start := time.Now()
	defer func() {
		g.perfCollector.RecordPhase(telemetry.PhaseTelemetry, time.Since(start))
	}()

	if cfg.Telemetry.StatsInterval > 0 && tick%int64(cfg.Telemetry.StatsInterval) == 0 {
		g.flushStats()
	}

	if window := int64(cfg.Telemetry.PerfCollectorWindow); window > 0 && tick%window == 0 {
		perfStats := g.perfCollector.Stats()
		if g.logStats {
			perfStats.LogStats()
		}
		if err := g.outputManager.WritePerf(perfStats, tick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if g.hub != nil && cfg.Stream.FrameInterval > 0 && tick%int64(cfg.Stream.FrameInterval) == 0 {
		g.hub.Broadcast(tick, g.sim.Density())
	}
}

// flushStats measures the fields, records them and checks for bookmarks.
func (g *Game) flushStats() {
	stats := g.sim.Stats()
	g.lastStats = stats

	if g.logStats {
		stats.LogStats()
	}
	if err := g.outputManager.WriteTick(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot writes the current fields to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.snapshotDir == "" {
		slog.Warn("snapshot requested but no snapshot directory set")
		return
	}
	snapshot := g.sim.Snapshot()
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", snapshot.Tick)
}
