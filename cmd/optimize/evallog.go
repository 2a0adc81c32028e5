package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

// evalRecord is one line of optimize_log.csv.
type evalRecord struct {
	Eval               int     `csv:"eval"`
	Fitness            float64 `csv:"fitness"`
	MeanAbsDivergence  float64 `csv:"mean_abs_divergence"`
	PressureIterations float64 `csv:"pressure_iterations"`
	PressureDamping    float64 `csv:"pressure_damping"`
}

// evalLog records every evaluation and remembers the best one.
type evalLog struct {
	w        io.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	bestParams  []float64
}

func newEvalLog(w io.Writer, maxEvals int) *evalLog {
	return &evalLog{w: w, maxEvals: maxEvals, start: time.Now(), bestFitness: 1e9}
}

// record appends one evaluation of clamped params and prints progress.
func (l *evalLog) record(params []float64, fitness, meanDiv float64) error {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.bestParams = append([]float64(nil), params...)
	}

	rec := []evalRecord{{
		Eval:               l.count,
		Fitness:            fitness,
		MeanAbsDivergence:  meanDiv,
		PressureIterations: params[0],
		PressureDamping:    params[1],
	}}
	var err error
	if l.count == 1 {
		err = gocsv.Marshal(rec, l.w)
	} else {
		err = gocsv.MarshalWithoutHeaders(rec, l.w)
	}

	elapsed := time.Since(l.start)
	remaining := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	fmt.Printf("Eval %d/%d: iters=%.0f damping=%.3f mean|div|=%.3e fitness=%.3f (best=%.3f) | elapsed: %s, ETA: %s\n",
		l.count, l.maxEvals, params[0], params[1], meanDiv, fitness, l.bestFitness,
		formatDuration(elapsed), formatDuration(remaining))
	return err
}

// formatDuration formats a duration as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
