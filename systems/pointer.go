package systems

import (
	"math"
	"math/rand"
)

// Pointer turns drags into velocity and dye splats.
type Pointer struct {
	Radius       float64
	Force        float64
	DyeIntensity float64
	HueSpeed     float64

	hue float64
}

// Hue returns the current dye hue in degrees.
func (p *Pointer) Hue() float64 { return p.hue }

// Randomize jumps to a random hue, as at the start of a new stroke.
func (p *Pointer) Randomize(rng *rand.Rand) {
	p.hue = rng.Float64() * 360
}

// Advance moves the hue by dt seconds.
func (p *Pointer) Advance(dt float64) {
	p.hue = math.Mod(p.hue+360*p.HueSpeed*dt, 360)
}

// Drag splats a circular blob at (x, y) moving by (dx, dy) pixels over dt
// seconds. The injected velocity is Force times the drag speed; a zero dt
// assumes one 60 Hz frame. A zero-length drag splats nothing.
func (p *Pointer) Drag(sp Splatter, x, y, dx, dy, dt float64) (bool, error) {
	if dx == 0 && dy == 0 {
		return false, nil
	}
	if dt <= 0 {
		dt = 1.0 / 60
	}
	vx, vy := p.Force*dx/dt, p.Force*dy/dt
	if err := sp.SetVelocity(x, y, 0, p.Radius, p.Radius, vx, vy); err != nil {
		return false, err
	}
	if err := sp.SetDye(x, y, 0, p.Radius, p.Radius, DyeColor(p.hue, p.DyeIntensity)); err != nil {
		return false, err
	}
	return true, nil
}
