// Package main tunes pressure iterations and warm start damping with CMA-ES,
// trading residual divergence against solver cost.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/gridfluid/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	n := flag.Int("n", 64, "Grid resolution for tuning runs (0 = use config)")
	ticks := flag.Int64("ticks", 300, "Ticks per scenario run")
	warmup := flag.Int64("warmup", 60, "Ticks to skip before averaging divergence")
	costWeight := flag.Float64("cost-weight", 0.5, "Fitness penalty per 100 pressure iterations")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	tuneCfg := *config.Cfg()
	if *n > 0 {
		tuneCfg.Grid.N = *n
		if err := tuneCfg.Finalize(); err != nil {
			log.Fatalf("invalid grid override: %v", err)
		}
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, *ticks, *warmup, *costWeight, DefaultScenarios, &tuneCfg)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	evals := newEvalLog(logFile, *maxEvals)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			if err := evals.record(params.Clamp(raw), fitness, evaluator.LastMeanDivergence()); err != nil {
				log.Printf("failed to log eval: %v", err)
			}
			return fitness
		},
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Scenarios per evaluation: %d, ticks per run: %d, N=%d\n",
		len(DefaultScenarios), *ticks, tuneCfg.Grid.N)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := evals.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evals.count, formatDuration(time.Since(evals.start)))
	fmt.Printf("Best fitness: %.3f\n\nBest parameters:\n", evals.bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.4f\n", spec.Name, spec.Path, best[i])
	}

	// The saved config keeps the user's resolution
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	if err := params.ApplyToConfig(bestCfg, best); err != nil {
		log.Fatalf("failed to apply best parameters: %v", err)
	}
	out := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		log.Fatalf("failed to write best config: %v", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", out)
}
