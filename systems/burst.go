package systems

import (
	"math"
	"math/rand"
)

// Burst splats n randomly placed, randomly coloured blobs across a domain
// of the given size. Each blob pushes in a random direction at up to speed
// pixels per second.
func Burst(sp Splatter, rng *rand.Rand, n int, width, height, radius, speed, value float64) error {
	for i := 0; i < n; i++ {
		x := rng.Float64() * width
		y := rng.Float64() * height
		sin, cos := math.Sincos(rng.Float64() * 2 * math.Pi)
		v := speed * (0.5 + 0.5*rng.Float64())
		if err := sp.SetVelocity(x, y, 0, radius, radius, v*cos, v*sin); err != nil {
			return err
		}
		if err := sp.SetDye(x, y, 0, radius, radius, RandomDyeColor(rng, value)); err != nil {
			return err
		}
	}
	return nil
}
