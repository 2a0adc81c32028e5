package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/sim"
	"github.com/pthm-cable/gridfluid/solver"
)

// Fitness assigned to runs that blow up.
const nonFinitePenalty = 1e6

// Scenario is one scripted run every candidate is scored on.
type Scenario struct {
	Name   string
	Script string
	Seed   bool // write the configured seed disc before the first tick
}

// DefaultScenarios stir, sweep and let a seeded disc coast.
var DefaultScenarios = []Scenario{
	{Name: "circle", Script: "circle"},
	{Name: "sweep", Script: "sweep"},
	{Name: "seeded", Script: "idle", Seed: true},
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int64
	warmup     int64
	costWeight float64
	scenarios  []Scenario
	baseConfig *config.Config

	mu          sync.Mutex
	lastMeanDiv float64 // divergence from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks, warmup int64, costWeight float64, scenarios []Scenario, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		warmup:     warmup,
		costWeight: costWeight,
		scenarios:  scenarios,
		baseConfig: baseCfg,
	}
}

// LastMeanDivergence returns the scenario-averaged divergence from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastMeanDivergence() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeanDiv
}

// runResult holds the results from a single simulation run.
type runResult struct {
	meanDiv   float64
	nonFinite bool
	err       error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness trades log residual divergence against iteration cost.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nonFinitePenalty
	}

	results := make([]runResult, len(fe.scenarios))
	var wg sync.WaitGroup
	for i, sc := range fe.scenarios {
		wg.Add(1)
		go func(idx int, sc Scenario) {
			defer wg.Done()
			results[idx] = fe.runScenario(cfg, sc)
		}(i, sc)
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		if r.err != nil || r.nonFinite {
			fe.setLast(math.Inf(1))
			return nonFinitePenalty
		}
		total += r.meanDiv
	}
	meanDiv := total / float64(len(results))
	fe.setLast(meanDiv)

	return fe.computeFitness(meanDiv, cfg.Solver.PressureIterations)
}

func (fe *FitnessEvaluator) setLast(v float64) {
	fe.mu.Lock()
	fe.lastMeanDiv = v
	fe.mu.Unlock()
}

func (fe *FitnessEvaluator) computeFitness(meanDiv float64, iterations int) float64 {
	return math.Log10(meanDiv+1e-12) + fe.costWeight*float64(iterations)/100
}

// runScenario executes one scripted run. Scenarios already run in
// parallel, so each simulation dispatches serially.
func (fe *FitnessEvaluator) runScenario(cfg *config.Config, sc Scenario) runResult {
	s, err := sim.New(cfg.Grid.N, sim.ConstantsFromConfig(cfg), compute.Serial{})
	if err != nil {
		return runResult{err: err}
	}
	if sc.Seed {
		seeded := *cfg
		seeded.Seed.Enabled = true
		s.ApplySeed(&seeded)
	}
	script, err := sim.ScriptByName(sc.Script, cfg.Grid.N)
	if err != nil {
		return runResult{err: err}
	}

	var sum float64
	var samples int
	err = sim.Run(context.Background(), s, script, fe.ticks, func(s *sim.Simulation) {
		if s.Tick() > fe.warmup {
			sum += solver.MeanAbsDivergence(s.Velocity())
			samples++
		}
	})
	if err != nil {
		return runResult{err: err}
	}

	r := runResult{nonFinite: s.Stats().NonFinite > 0}
	if samples > 0 {
		r.meanDiv = sum / float64(samples)
	}
	if math.IsNaN(r.meanDiv) || math.IsInf(r.meanDiv, 0) {
		r.nonFinite = true
	}
	return r
}

// copyConfig returns a copy of the base config. Config holds no pointers,
// so a value copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
