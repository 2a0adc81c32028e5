// Package ui draws the heads-up display and the raygui control panel.
package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Style holds panel colors and metrics.
type Style struct {
	Panel, Border      rl.Color
	Header, Text, Data rl.Color
	Track, Fill, Warn  rl.Color

	Pad, Line, LabelW, BarH int32
	Font, HeaderFont        int32
}

// DefaultStyle is a dark translucent panel with small text.
func DefaultStyle() Style {
	return Style{
		Panel:      rl.Color{R: 16, G: 20, B: 26, A: 235},
		Border:     rl.Color{R: 58, G: 68, B: 80, A: 255},
		Header:     rl.Color{R: 240, G: 210, B: 90, A: 255},
		Text:       rl.LightGray,
		Data:       rl.RayWhite,
		Track:      rl.Color{R: 38, G: 40, B: 44, A: 255},
		Fill:       rl.Color{R: 90, G: 150, B: 210, A: 255},
		Warn:       rl.Color{R: 210, G: 90, B: 80, A: 255},
		Pad:        10,
		Line:       16,
		LabelW:     110,
		BarH:       12,
		Font:       12,
		HeaderFont: 14,
	}
}

// Painter draws panel elements in one Style. Each row method returns the
// y of the next row.
type Painter struct {
	Style Style
}

// NewPainter returns a painter with the default style.
func NewPainter() *Painter {
	return &Painter{Style: DefaultStyle()}
}

// Panel fills a bordered rectangle.
func (p *Painter) Panel(x, y, w, h int32) {
	rl.DrawRectangle(x, y, w, h, p.Style.Panel)
	rl.DrawRectangleLines(x, y, w, h, p.Style.Border)
}

// Heading draws a section title.
func (p *Painter) Heading(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, p.Style.HeaderFont, p.Style.Header)
	return y + p.Style.Line
}

// Row draws "label: value" with the value in a fixed column.
func (p *Painter) Row(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, p.Style.Font, p.Style.Text)
	rl.DrawText(value, x+p.Style.LabelW, y, p.Style.Font, p.Style.Data)
	return y + p.Style.Line
}

// LogFraction places v on a log10 axis from 10^lo to 10^hi, clamped to
// [0, 1]. Non-positive and NaN values map to 0.
func LogFraction(v float64, lo, hi float64) float64 {
	if !(v > 0) || hi <= lo {
		return 0
	}
	f := (math.Log10(v) - lo) / (hi - lo)
	return min(max(f, 0), 1)
}

// LogMeter draws v as a bar on a log axis from 10^lo to 10^hi, in the
// warning color past 10^warn.
func (p *Painter) LogMeter(x, y int32, label string, v, lo, hi, warn float64, w int32) int32 {
	s := p.Style
	bx := x + s.LabelW
	bw := w - s.LabelW - 60

	rl.DrawText(label+":", x, y, s.Font, s.Text)
	rl.DrawRectangle(bx, y+2, bw, s.BarH, s.Track)

	fill := s.Fill
	if LogFraction(v, lo, hi) > LogFraction(math.Pow(10, warn), lo, hi) {
		fill = s.Warn
	}
	rl.DrawRectangle(bx, y+2, int32(float64(bw)*LogFraction(v, lo, hi)), s.BarH, fill)
	rl.DrawText(fmt.Sprintf("%.1e", v), bx+bw+5, y, s.Font, s.Data)
	return y + s.Line + 2
}
