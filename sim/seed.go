package sim

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/gridfluid/config"
	"github.com/pthm-cable/gridfluid/field"
)

// ApplySeed writes the seed described by cfg, if enabled.
func (s *Simulation) ApplySeed(cfg *config.Config) {
	seed := cfg.Seed
	if !seed.Enabled {
		return
	}
	switch seed.Shape {
	case config.SeedNoise:
		s.SeedNoise(seed.NoiseSeed, float32(seed.NoiseScale), float32(seed.Density), float32(seed.NoiseAmplitude))
	default:
		c := cfg.Derived.SeedCenter
		s.SeedCircle(c, c, float32(seed.Radius), float32(seed.Density),
			float32(seed.VelocityX), float32(seed.VelocityY))
	}
}

// SeedNoise fills the interior with simplex noise, in all three buffers.
// Density is in [0, density]. Velocity is the discrete curl of a noise
// stream function with peak amplitude, so its central difference
// divergence vanishes away from the border.
func (s *Simulation) SeedNoise(seed int64, scale, density, amplitude float32) {
	n := s.n
	psiNoise := opensimplex.New32(seed)
	densNoise := opensimplex.NewNormalized32(seed + 1)

	// Stream function sampled on the full grid so the curl has neighbors
	// at the interior edge.
	psi, _ := field.NewGrid(n, field.Scalar)
	for j := 0; j <= n+1; j++ {
		for i := 0; i <= n+1; i++ {
			psi.Set(i, j, 0, amplitude*psiNoise.Eval2(float32(i)/scale, float32(j)/scale))
		}
	}

	for _, g := range []*field.Grid{s.density.Current, s.density.Scratch, s.density.Snapshot} {
		for j := 1; j <= n; j++ {
			for i := 1; i <= n; i++ {
				g.Set(i, j, 0, density*densNoise.Eval2(float32(i)/scale, float32(j)/scale))
			}
		}
	}
	for _, g := range []*field.Grid{s.velocity.Current, s.velocity.Scratch, s.velocity.Snapshot} {
		for j := 1; j <= n; j++ {
			for i := 1; i <= n; i++ {
				g.Set(i, j, 0, 0.5*(psi.At(i, j+1, 0)-psi.At(i, j-1, 0)))
				g.Set(i, j, 1, -0.5*(psi.At(i+1, j, 0)-psi.At(i-1, j, 0)))
			}
		}
	}
}
