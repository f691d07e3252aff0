package systems

import (
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DyeColor converts a hue in degrees and an HSV value to a linear RGB dye
// colour at full saturation.
func DyeColor(hue, value float64) [3]float64 {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	c := colorful.Hsv(hue, 1, value)
	return [3]float64{c.R, c.G, c.B}
}

// RandomDyeColor picks a random fully saturated hue.
func RandomDyeColor(rng *rand.Rand, value float64) [3]float64 {
	return DyeColor(rng.Float64()*360, value)
}
