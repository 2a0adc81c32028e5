// Package renderer draws simulation fields with raylib.
package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/camera"
	"github.com/pthm-cable/gridfluid/field"
)

// DensityRenderer uploads the interior of a density grid into an N x N
// texture each frame and draws it with bilinear filtering.
type DensityRenderer struct {
	texture rl.Texture2D
	pixels  []color.RGBA
	n       int

	// Gain scales density before clamping to [0, 1].
	Gain float32
	Tint rl.Color
}

// NewDensityRenderer allocates the texture. Requires an open window.
func NewDensityRenderer(n int) *DensityRenderer {
	img := rl.GenImageColor(n, n, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(texture, rl.FilterBilinear)

	return &DensityRenderer{
		texture: texture,
		pixels:  make([]color.RGBA, n*n),
		n:       n,
		Gain:    1,
		Tint:    rl.White,
	}
}

// Update copies the grid's interior into the texture.
func (r *DensityRenderer) Update(g *field.Grid) {
	FillPixels(r.pixels, g, r.Gain)
	rl.UpdateTexture(r.texture, r.pixels)
}

// UpdateSpeed shades the texture by velocity magnitude instead.
func (r *DensityRenderer) UpdateSpeed(vel *field.Grid) {
	FillSpeedPixels(r.pixels, vel, r.Gain)
	rl.UpdateTexture(r.texture, r.pixels)
}

// Draw renders the grid domain [0, N]^2 through the camera.
func (r *DensityRenderer) Draw(cam *camera.Camera) {
	x0, y0 := cam.GridToScreen(0, 0)
	x1, y1 := cam.GridToScreen(float32(r.n), float32(r.n))

	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.n), Height: float32(r.n)}
	dst := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawTexturePro(r.texture, src, dst, rl.Vector2{}, 0, r.Tint)
}

// Unload releases GPU resources.
func (r *DensityRenderer) Unload() {
	rl.UnloadTexture(r.texture)
}

// FillPixels maps component 0 of every interior cell to a gray level.
// dst must hold N*N pixels; row j-1 of dst is grid row j.
func FillPixels(dst []color.RGBA, g *field.Grid, gain float32) {
	n := g.N
	for j := 1; j <= n; j++ {
		row := g.Interior(j)
		out := dst[(j-1)*n : j*n]
		for i := range out {
			v := row[i*g.Components] * gain
			switch {
			case !(v > 0): // also catches NaN
				v = 0
			case v > 1:
				v = 1
			}
			l := uint8(v * 255)
			out[i] = color.RGBA{R: l, G: l, B: l, A: 255}
		}
	}
}

// FillSpeedPixels maps the velocity magnitude of every interior cell to a
// blue-to-white ramp.
func FillSpeedPixels(dst []color.RGBA, vel *field.Grid, gain float32) {
	n := vel.N
	for j := 1; j <= n; j++ {
		row := vel.Interior(j)
		out := dst[(j-1)*n : j*n]
		for i := range out {
			vx, vy := row[2*i], row[2*i+1]
			v := float32(math.Hypot(float64(vx), float64(vy))) * gain
			if !(v < 1) {
				v = 1
			}
			if math.IsNaN(float64(vx)) || math.IsNaN(float64(vy)) {
				v = 0
			}
			out[i] = color.RGBA{R: uint8(v * v * 255), G: uint8(v * 200), B: uint8(40 + v*215), A: 255}
		}
	}
}
