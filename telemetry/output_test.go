package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gridfluid/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Every method is safe on nil.
	if err := om.WriteTick(TickStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Error(err)
	}
	if err := om.WriteConfig(nil); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should report empty dir and close cleanly")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for tick := int64(1); tick <= 3; tick++ {
		if err := om.WriteTick(TickStats{Tick: tick, DensityTotal: 1.5}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(perfWithInject(12.5), 3); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("ticks.csv has %d lines, want header + 3:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "tick,sim_time,density_total") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "3,") {
		t.Errorf("last row = %q", lines[3])
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(perf), "inject_pct") || !strings.Contains(string(perf), "12.5") {
		t.Errorf("perf.csv = %q", perf)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml: %v", err)
	}
}

func TestOutputManagerWritesBookmarks(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, bm := range []Bookmark{
		{Type: BookmarkNonFinite, Tick: 40, Description: "3 non-finite cells"},
		{Type: BookmarkQuiescent, Tick: 900, Description: "settled"},
	} {
		if err := om.WriteBookmark(bm); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("bookmarks.csv has %d lines, want 3:\n%s", len(lines), data)
	}
	if lines[0] != "tick,type,description" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "40,non_finite,") {
		t.Errorf("row = %q", lines[1])
	}
}

func perfWithInject(pct float64) PerfStats {
	var s PerfStats
	s.Phase[PhaseInject].Pct = pct
	return s
}
