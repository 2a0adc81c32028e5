package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testSnapshot(n int, tick int64) *Snapshot {
	cells := (n + 2) * (n + 2)
	return &Snapshot{
		Version:  SnapshotVersion,
		N:        n,
		Tick:     tick,
		SimTime:  float64(tick) / 100,
		Density:  make([]float32, cells),
		Velocity: make([]float32, 2*cells),
	}
}

func TestSnapshotSaveLoad(t *testing.T) {
	snap := testSnapshot(2, 1000)
	snap.Density[5] = 0.75
	snap.Velocity[11] = -0.25
	snap.Bookmark = &Bookmark{Type: BookmarkDivergenceSpike, Tick: 1000, Description: "Test bookmark"}

	path, err := SaveSnapshot(snap, t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if got := filepath.Base(path); got != "snapshot_1000_divergence_spike.json.gz" {
		t.Errorf("unexpected snapshot name %s", got)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.N != 2 || loaded.Tick != 1000 || loaded.SimTime != 10 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Density[5] != 0.75 || loaded.Velocity[11] != -0.25 {
		t.Error("field values not preserved")
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkDivergenceSpike {
		t.Error("bookmark not preserved")
	}
}

func TestSnapshotKeepsNonFiniteCells(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	snap := testSnapshot(2, 40)
	snap.Density[8] = nan
	snap.Velocity[3] = inf
	snap.Velocity[4] = -inf
	snap.Bookmark = &Bookmark{Type: BookmarkNonFinite, Tick: 40}

	path, err := SaveSnapshot(snap, t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if got := filepath.Base(path); got != "snapshot_40_non_finite.json.gz" {
		t.Errorf("unexpected snapshot name %s", got)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !math.IsNaN(float64(loaded.Density[8])) {
		t.Errorf("density[8] = %v, want NaN", loaded.Density[8])
	}
	if loaded.Velocity[3] != inf || loaded.Velocity[4] != -inf {
		t.Errorf("velocity = %v %v, want +Inf -Inf", loaded.Velocity[3], loaded.Velocity[4])
	}
	if loaded.Density[7] != 0 {
		t.Errorf("neighboring cell = %v, want 0", loaded.Density[7])
	}
}

func TestSnapshotFileName(t *testing.T) {
	if got := testSnapshot(1, 7).FileName(); got != "snapshot_7.json.gz" {
		t.Errorf("got %s, want snapshot_7.json.gz", got)
	}
}

func TestLoadSnapshotPlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	body, err := json.Marshal(testSnapshot(1, 3))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Tick != 3 {
		t.Errorf("tick = %d, want 3", s.Tick)
	}
}

func TestLoadSnapshotRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"version", `{"version": 99}`, ErrSnapshotVersion},
		{"shape", fmt.Sprintf(`{"version": %d, "n": 2, "density": "AACAPw=="}`, SnapshotVersion), ErrSnapshotShape},
		{"ragged", fmt.Sprintf(`{"version": %d, "n": 1, "density": "AAA="}`, SnapshotVersion), ErrSnapshotShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSnapshot(path); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "none.json.gz")); err == nil {
		t.Error("expected error for missing file")
	}
}
