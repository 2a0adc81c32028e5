package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if cfg.Grid.N != 256 {
		t.Errorf("grid.n = %d, want 256", cfg.Grid.N)
	}
	if cfg.Solver.PressureIterations != 100 || cfg.Solver.DiffusionIterations != 20 {
		t.Errorf("iterations = %d/%d, want 100/20", cfg.Solver.PressureIterations, cfg.Solver.DiffusionIterations)
	}
	if cfg.Derived.SeedCenter != 129 {
		t.Errorf("seed center = %v, want 129", cfg.Derived.SeedCenter)
	}
	if cfg.Derived.Cells != 258*258 {
		t.Errorf("cells = %d, want %d", cfg.Derived.Cells, 258*258)
	}
	if !cfg.Derived.MacCormack || !cfg.Derived.ZeroPressure {
		t.Errorf("derived flags = %+v", cfg.Derived)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := []byte("grid:\n  n: 64\nsolver:\n  advection: semi_lagrangian\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.N != 64 {
		t.Errorf("grid.n = %d, want 64", cfg.Grid.N)
	}
	// Untouched fields keep their defaults.
	if cfg.Solver.DT != 0.01 {
		t.Errorf("solver.dt = %v, want 0.01", cfg.Solver.DT)
	}
	if cfg.Derived.MacCormack {
		t.Error("expected semi-Lagrangian advection")
	}
	if got, want := cfg.Derived.SplatRadius, float32(64*0.02); got != want {
		t.Errorf("splat radius = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero grid", func(c *Config) { c.Grid.N = 0 }},
		{"negative dt", func(c *Config) { c.Solver.DT = -1 }},
		{"negative iterations", func(c *Config) { c.Solver.PressureIterations = -1 }},
		{"bad reset", func(c *Config) { c.Solver.PressureReset = "keep" }},
		{"bad scheme", func(c *Config) { c.Solver.Advection = "bfecc" }},
		{"zero tile", func(c *Config) { c.Compute.TileDim = 0 }},
		{"bad seed shape", func(c *Config) { c.Seed.Shape = "square" }},
		{"zero noise scale", func(c *Config) { c.Seed.Shape = SeedNoise; c.Seed.NoiseScale = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Grid.N = 32
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written: %v", err)
	}
	if back.Grid.N != 32 {
		t.Errorf("grid.n = %d, want 32", back.Grid.N)
	}
}

func TestFinalizeRecomputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Grid.N = 100
	cfg.Solver.PressureReset = PressureResetDamp
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Derived.Cells != 102*102 {
		t.Errorf("cells = %d, want %d", cfg.Derived.Cells, 102*102)
	}
	if cfg.Derived.SeedCenter != 51 {
		t.Errorf("seed center = %v, want 51", cfg.Derived.SeedCenter)
	}
	if cfg.Derived.ZeroPressure {
		t.Error("damp reset should clear ZeroPressure")
	}

	cfg.Grid.N = 0
	if err := cfg.Finalize(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Finalize() = %v, want ErrInvalid", err)
	}
}
