package main

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Floor for log axes; a fully converged run can report zero divergence.
const divFloor = 1e-12

// divergencePoints pairs iteration counts with mean |div|, floored for a
// log axis.
func divergencePoints(rows []SweepRow) plotter.XYs {
	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i].X = float64(r.PressureIterations)
		pts[i].Y = math.Max(r.MeanAbsDivergence, divFloor)
	}
	return pts
}

// savePlot writes mean |div| against pressure iterations on a log axis.
func savePlot(rows []SweepRow, path string) error {
	p := plot.New()
	p.Title.Text = "Residual divergence"
	p.X.Label.Text = "pressure iterations"
	p.Y.Label.Text = "mean |div|"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(divergencePoints(rows))
	if err != nil {
		return fmt.Errorf("building plot: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	points.GlyphStyle.Radius = vg.Points(3)
	p.Add(line, points)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}

// asciiPlot renders log10 mean |div| per run for the terminal.
func asciiPlot(rows []SweepRow) string {
	if len(rows) < 2 {
		return ""
	}
	logs := make([]float64, len(rows))
	for i, pt := range divergencePoints(rows) {
		logs[i] = math.Log10(pt.Y)
	}
	return asciigraph.Plot(logs,
		asciigraph.Height(8),
		asciigraph.Width(max(30, 4*len(rows))),
		asciigraph.Caption("log10 mean |div| by run"))
}
