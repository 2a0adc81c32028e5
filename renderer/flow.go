package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridfluid/camera"
	"github.com/pthm-cable/gridfluid/field"
)

// VelocityRenderer draws velocity arrows at every Stride-th cell.
type VelocityRenderer struct {
	Stride int
	Scale  float32 // Grid units of arrow length per unit of speed
	Color  rl.Color
}

// NewVelocityRenderer picks a stride giving roughly 32 arrows per axis.
func NewVelocityRenderer(n int) *VelocityRenderer {
	return &VelocityRenderer{
		Stride: max(1, n/32),
		Scale:  float32(max(1, n/32)) * 4,
		Color:  rl.Color{R: 80, G: 170, B: 220, A: 255},
	}
}

// Draw renders arrows for vel through the camera with additive blending.
// Faint arrows are skipped.
func (r *VelocityRenderer) Draw(cam *camera.Camera, vel *field.Grid) {
	rl.BeginBlendMode(rl.BlendAdditive)
	defer rl.EndBlendMode()

	half := r.Stride / 2
	for j := 1 + half; j <= vel.N; j += r.Stride {
		for i := 1 + half; i <= vel.N; i += r.Stride {
			vx, vy := vel.At(i, j, 0), vel.At(i, j, 1)
			speed := float32(math.Hypot(float64(vx), float64(vy)))
			if !(speed*r.Scale > 0.05) { // also skips NaN
				continue
			}

			// Texture pixel i-1 shows cell i
			gx, gy := float32(i)-0.5, float32(j)-0.5
			x0, y0 := cam.GridToScreen(gx, gy)
			x1, y1 := cam.GridToScreen(gx+vx*r.Scale, gy+vy*r.Scale)

			alpha := min(1, 0.3+speed*r.Scale)
			c := r.Color
			c.A = uint8(alpha * 200)
			rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 1.5, c)
			rl.DrawCircleV(rl.Vector2{X: x1, Y: y1}, 2, c)
		}
	}
}

// DrawBorder outlines the domain [0, N]^2.
func DrawBorder(cam *camera.Camera, n int, c rl.Color) {
	x0, y0 := cam.GridToScreen(0, 0)
	x1, y1 := cam.GridToScreen(float32(n), float32(n))
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, c)
}
