package main

import (
	"math"

	"github.com/pthm-cable/gridfluid/config"
)

// ParamSpec is one tuned config value with its search bounds.
type ParamSpec struct {
	Name     string
	Path     string // YAML path, for logs
	Min, Max float64
	Default  float64
	Integer  bool

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector orders the tuned parameters. CMA-ES searches the unit cube;
// Normalize and Denormalize map between it and raw values.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector tunes pressure iterations and warm start damping.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{
			Name: "pressure_iterations", Path: "solver.pressure_iterations",
			Min: 5, Max: 200, Default: 40, Integer: true,
			get: func(c *config.Config) float64 { return float64(c.Solver.PressureIterations) },
			set: func(c *config.Config, v float64) { c.Solver.PressureIterations = int(v) },
		},
		{
			Name: "pressure_damping", Path: "solver.pressure_damping",
			Min: 0, Max: 1, Default: 0.8,
			get: func(c *config.Config) float64 { return c.Solver.PressureDamping },
			set: func(c *config.Config, v float64) { c.Solver.PressureDamping = v },
		},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the raw defaults.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw values into the unit cube.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / (s.Max - s.Min) })
}

// Denormalize maps unit cube values back to raw values. The result may lie
// outside the bounds; see Clamp.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, func(s ParamSpec, v float64) float64 { return s.Min + v*(s.Max-s.Min) })
}

// Clamp bounds raw values and rounds integer parameters.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 {
		v = min(max(v, s.Min), s.Max)
		if s.Integer {
			v = math.Round(v)
		}
		return v
	})
}

func (pv *ParamVector) each(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var v float64
		if in != nil {
			v = in[i]
		}
		out[i] = f(s, v)
	}
	return out
}

// ApplyToConfig writes clamped values into cfg and refreshes derived
// values. Damping only acts on a warm started solve, so the reset mode is
// forced to damp.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) error {
	for i, v := range pv.Clamp(raw) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.Solver.PressureReset = config.PressureResetDamp
	return cfg.Finalize()
}

// ExtractFromConfig reads the tuned values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.get(cfg)
	}
	return out
}
