// Command sweep measures how residual divergence and tick cost respond to
// the pressure iteration count, one scripted run per count.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gridfluid/compute"
	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/sim"
	"github.com/pthm-cable/gridfluid/solver"
)

// SweepRow is one line of the sweep output.
type SweepRow struct {
	PressureIterations int     `csv:"pressure_iterations"`
	Scheme             string  `csv:"scheme"`
	MeanAbsDivergence  float64 `csv:"mean_abs_divergence"`
	PeakAbsDivergence  float64 `csv:"peak_abs_divergence"`
	DensityTotal       float64 `csv:"density_total"`
	MaxSpeed           float64 `csv:"max_speed"`
	NonFinite          int     `csv:"non_finite"`
	MsPerTick          float64 `csv:"ms_per_tick"`
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := strconv.Atoi(f)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("bad iteration count %q", f)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no iteration counts given")
	}
	return out, nil
}

func checkTicks(ticks, warmup int64) error {
	if ticks < 1 {
		return fmt.Errorf("ticks must be at least 1, got %d", ticks)
	}
	if warmup < 0 || warmup >= ticks {
		return fmt.Errorf("warmup must be in [0, %d), got %d", ticks, warmup)
	}
	return nil
}

// measure runs one configuration and averages divergence over the ticks
// after warmup.
func measure(ctx context.Context, cfg *config.Config, dev compute.Device, script sim.Script, c sim.Constants, ticks, warmup int64) (SweepRow, error) {
	if err := checkTicks(ticks, warmup); err != nil {
		return SweepRow{}, err
	}
	s, err := sim.New(cfg.Grid.N, c, dev)
	if err != nil {
		return SweepRow{}, err
	}
	s.ApplySeed(cfg)

	row := SweepRow{PressureIterations: c.PressureIterations, Scheme: c.Scheme.String()}
	var samples int
	start := time.Now()
	err = sim.Run(ctx, s, script, ticks, func(s *sim.Simulation) {
		if s.Tick() <= warmup {
			return
		}
		div := solver.MeanAbsDivergence(s.Velocity())
		row.MeanAbsDivergence += div
		row.PeakAbsDivergence = max(row.PeakAbsDivergence, div)
		samples++
	})
	elapsed := time.Since(start)
	if err != nil {
		return row, err
	}

	if samples > 0 {
		row.MeanAbsDivergence /= float64(samples)
	}
	stats := s.Stats()
	row.DensityTotal = stats.DensityTotal
	row.MaxSpeed = stats.MaxSpeed
	row.NonFinite = stats.NonFinite
	row.MsPerTick = float64(elapsed.Microseconds()) / 1000 / float64(ticks)
	return row, nil
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	n := flag.Int("n", 0, "Grid resolution override (0 = use config)")
	counts := flag.String("iters", "0,5,10,20,40,80,160", "Comma-separated pressure iteration counts")
	ticks := flag.Int64("ticks", 200, "Ticks per run")
	warmup := flag.Int64("warmup", 50, "Ticks to skip before averaging")
	scriptName := flag.String("script", "circle", "Pointer script: "+strings.Join(sim.ScriptNames(), ", "))
	output := flag.String("output", "sweep.csv", "Output CSV path")
	plotPath := flag.String("plot", "", "Optional PNG path for a divergence plot")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if *n > 0 {
		cfg.Grid.N = *n
		if err := cfg.Finalize(); err != nil {
			log.Fatalf("invalid grid override: %v", err)
		}
	}

	iters, err := parseCounts(*counts)
	if err != nil {
		log.Fatal(err)
	}
	if err := checkTicks(*ticks, *warmup); err != nil {
		log.Fatal(err)
	}
	script, err := sim.ScriptByName(*scriptName, cfg.Grid.N)
	if err != nil {
		log.Fatal(err)
	}

	pool := compute.NewPool(cfg.Compute.Workers, cfg.Compute.TileDim)
	defer pool.Close()

	ctx := context.Background()
	base := sim.ConstantsFromConfig(cfg)
	rows := make([]SweepRow, 0, len(iters))

	fmt.Printf("Sweeping %d pressure iteration counts at N=%d, %d ticks each (script %s)\n",
		len(iters), cfg.Grid.N, *ticks, *scriptName)
	for _, k := range iters {
		c := base
		c.PressureIterations = k
		row, err := measure(ctx, cfg, pool, script, c, *ticks, *warmup)
		if err != nil {
			log.Fatalf("iterations=%d: %v", k, err)
		}
		fmt.Printf("  iters=%4d  mean|div|=%.3e  peak|div|=%.3e  %.2f ms/tick\n",
			k, row.MeanAbsDivergence, row.PeakAbsDivergence, row.MsPerTick)
		rows = append(rows, row)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	fmt.Printf("Results written to %s\n", *output)

	if g := asciiPlot(rows); g != "" {
		fmt.Println()
		fmt.Println(g)
	}
	if *plotPath != "" {
		if err := savePlot(rows, *plotPath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Plot written to %s\n", *plotPath)
	}
}
