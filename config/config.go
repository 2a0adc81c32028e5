// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Pressure reset modes applied at the start of every projection.
const (
	PressureResetZero = "zero"
	PressureResetDamp = "damp"
)

// Seed shapes.
const (
	SeedDisc  = "disc"
	SeedNoise = "noise"
)

// Advection schemes.
const (
	AdvectSemiLagrangian = "semi_lagrangian"
	AdvectMacCormack     = "maccormack"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Solver    SolverConfig    `yaml:"solver"`
	Splat     SplatConfig     `yaml:"splat"`
	Seed      SeedConfig      `yaml:"seed"`
	Compute   ComputeConfig   `yaml:"compute"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds the grid resolution. N is fixed for the lifetime of a run.
type GridConfig struct {
	N int `yaml:"n"` // Interior cells per axis; storage is (N+2)^2
}

// SolverConfig holds time stepping and relaxation parameters.
type SolverConfig struct {
	DT                  float64 `yaml:"dt"`
	Diffusion           float64 `yaml:"diffusion"`            // Density diffusion coefficient
	DiffusionIterations int     `yaml:"diffusion_iterations"` // Jacobi rounds per diffusion
	PressureIterations  int     `yaml:"pressure_iterations"`  // Jacobi rounds per projection
	PressureReset       string  `yaml:"pressure_reset"`       // "zero" or "damp"
	PressureDamping     float64 `yaml:"pressure_damping"`     // Warm start factor when pressure_reset is "damp"
	Advection           string  `yaml:"advection"`            // "semi_lagrangian" or "maccormack"
}

// SplatConfig holds pointer injection parameters.
type SplatConfig struct {
	RadiusFraction float64 `yaml:"radius_fraction"` // Radius = N * this
	Amount         float64 `yaml:"amount"`          // Density added at the splat center
	ImpulseScale   float64 `yaml:"impulse_scale"`   // Velocity impulse per grid unit of pointer motion
}

// SeedConfig describes the disc of density and velocity written at startup.
type SeedConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Shape     string  `yaml:"shape"` // "disc" or "noise"
	Radius    float64 `yaml:"radius"`
	Density   float64 `yaml:"density"`
	VelocityX float64 `yaml:"velocity_x"`
	VelocityY float64 `yaml:"velocity_y"`

	// Noise shape: density and a curl velocity field from simplex noise
	NoiseSeed      int64   `yaml:"noise_seed"`
	NoiseScale     float64 `yaml:"noise_scale"`     // Cells per noise feature
	NoiseAmplitude float64 `yaml:"noise_amplitude"` // Peak stream function value
}

// ComputeConfig holds worker pool parameters.
type ComputeConfig struct {
	Workers int `yaml:"workers"`  // 0 = GOMAXPROCS
	TileDim int `yaml:"tile_dim"` // Rows per dispatched tile
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Ticks per perf window
	StatsInterval       int `yaml:"stats_interval"`        // Ticks between stats records
}

// StreamConfig holds headless frame streaming parameters.
type StreamConfig struct {
	FrameInterval int `yaml:"frame_interval"` // Ticks between broadcast frames
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32 // Solver.DT as float32
	SplatRadius  float32 // Splat.RadiusFraction * N
	SeedCenter   float32 // (N+2)/2
	Cells        int     // (N+2)^2
	ScreenW32    float32
	ScreenH32    float32
	MacCormack   bool
	ZeroPressure bool
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates c and recomputes derived values. Call it after
// editing a loaded config in code.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate rejects configurations the solver cannot run.
func (c *Config) Validate() error {
	switch {
	case c.Grid.N < 1:
		return fmt.Errorf("%w: grid.n must be >= 1, got %d", ErrInvalid, c.Grid.N)
	case c.Solver.DT <= 0:
		return fmt.Errorf("%w: solver.dt must be > 0, got %g", ErrInvalid, c.Solver.DT)
	case c.Solver.Diffusion < 0:
		return fmt.Errorf("%w: solver.diffusion must be >= 0, got %g", ErrInvalid, c.Solver.Diffusion)
	case c.Solver.DiffusionIterations < 0:
		return fmt.Errorf("%w: solver.diffusion_iterations must be >= 0", ErrInvalid)
	case c.Solver.PressureIterations < 0:
		return fmt.Errorf("%w: solver.pressure_iterations must be >= 0", ErrInvalid)
	case c.Splat.RadiusFraction < 0:
		return fmt.Errorf("%w: splat.radius_fraction must be >= 0", ErrInvalid)
	case c.Compute.Workers < 0:
		return fmt.Errorf("%w: compute.workers must be >= 0", ErrInvalid)
	case c.Compute.TileDim < 1:
		return fmt.Errorf("%w: compute.tile_dim must be >= 1, got %d", ErrInvalid, c.Compute.TileDim)
	}

	switch c.Solver.PressureReset {
	case PressureResetZero, PressureResetDamp:
	default:
		return fmt.Errorf("%w: unknown solver.pressure_reset %q", ErrInvalid, c.Solver.PressureReset)
	}
	switch c.Seed.Shape {
	case SeedDisc, SeedNoise:
	default:
		return fmt.Errorf("%w: unknown seed.shape %q", ErrInvalid, c.Seed.Shape)
	}
	if c.Seed.Shape == SeedNoise && c.Seed.NoiseScale <= 0 {
		return fmt.Errorf("%w: seed.noise_scale must be > 0, got %g", ErrInvalid, c.Seed.NoiseScale)
	}
	switch c.Solver.Advection {
	case AdvectSemiLagrangian, AdvectMacCormack:
	default:
		return fmt.Errorf("%w: unknown solver.advection %q", ErrInvalid, c.Solver.Advection)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	n := c.Grid.N
	c.Derived.DT32 = float32(c.Solver.DT)
	c.Derived.SplatRadius = float32(c.Splat.RadiusFraction * float64(n))
	c.Derived.SeedCenter = float32(n+2) / 2
	c.Derived.Cells = (n + 2) * (n + 2)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.MacCormack = c.Solver.Advection == AdvectMacCormack
	c.Derived.ZeroPressure = c.Solver.PressureReset == PressureResetZero
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
