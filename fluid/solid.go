package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/plume/gpu"
)

// solidSamples is the number of pressure samples taken around each solid.
const solidSamples = 20

// Solid is a rigid circular body in domain pixels.
type Solid struct {
	Position r2.Vec
	Velocity r2.Vec
	Radius   float64

	// Mass, when positive, is used as is. Otherwise mass is derived from
	// Density (default 1) and the disc area.
	Mass    float64
	Density float64
}

// EffectiveMass returns Mass, or Density·π·r² when Mass is unset.
func (b *Solid) EffectiveMass() float64 {
	if b.Mass > 0 {
		return b.Mass
	}
	density := b.Density
	if density <= 0 {
		density = 1
	}
	return density * math.Pi * b.Radius * b.Radius
}

// check rejects bodies the coupling cannot sample.
func (b *Solid) check() error {
	if !(b.Radius >= 0) || math.IsInf(b.Radius, 0) {
		return fmt.Errorf("%w: radius %v", ErrInvalidSolid, b.Radius)
	}
	if !finite(b.Position) {
		return fmt.Errorf("%w: position %v", ErrInvalidSolid, b.Position)
	}
	if !finite(b.Velocity) {
		return fmt.Errorf("%w: velocity %v", ErrInvalidSolid, b.Velocity)
	}
	return nil
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// updateSolids integrates the pressure force on every solid and splats its
// new velocity back into the fluid.
func (s *Simulation) updateSolids(dt float64) error {
	for i, b := range s.Solids {
		if b == nil {
			continue
		}
		if err := b.check(); err != nil {
			return fmt.Errorf("solid %d: %w", i, err)
		}
		force, err := s.pressureForce(b)
		if err != nil {
			return fmt.Errorf("solid %d: %w", i, err)
		}
		if !finite(force) {
			return fmt.Errorf("solid %d: %w: pressure force %v", i, ErrInvalidSolid, force)
		}
		if m := b.EffectiveMass(); m > 0 {
			b.Velocity = r2.Add(b.Velocity, r2.Scale(1/m, force))
		}
		b.Position = r2.Add(b.Position, r2.Scale(dt, b.Velocity))

		if b.Radius == 0 {
			continue
		}
		sc := s.cfg.SimScale
		if err := s.setCircle(b.Position.X, b.Position.Y, b.Radius, b.Velocity.X*sc, b.Velocity.Y*sc); err != nil {
			return fmt.Errorf("solid %d: %w", i, err)
		}
	}
	return nil
}

// pressureForce integrates pressure around the circumference of b. The
// sample window and every sample coordinate are clamped to the pressure
// field, so bodies at or beyond the edge read the edge texels.
func (s *Simulation) pressureForce(b *Solid) (r2.Vec, error) {
	sc := s.cfg.SimScale
	fw, fh := s.pressure.Width(), s.pressure.Height()

	// Texel space: texel i covers [i, i+1).
	cx, cy := b.Position.X*sc, b.Position.Y*sc
	rs := b.Radius * sc
	n := int(math.Ceil(2*rs)) + 2
	x0 := clampInt(int(math.Floor(cx-rs))-1, 0, max(fw-n, 0))
	y0 := clampInt(int(math.Floor(cy-rs))-1, 0, max(fh-n, 0))

	raw, err := s.eng.ReadHalf(s.pressure.Read(), 0, x0, y0, n, n)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("reading pressure: %w", err)
	}
	window := gpu.DecodeHalfFloats(raw)
	if len(window) < n*n {
		return r2.Vec{}, fmt.Errorf("reading pressure: got %d samples, want %d", len(window), n*n)
	}

	// Bilinear between texel centres, clamped to the field then the window.
	sample := func(px, py float64) float64 {
		fx := clampFloat(px-0.5, 0, float64(fw-1)) - float64(x0)
		fy := clampFloat(py-0.5, 0, float64(fh-1)) - float64(y0)
		fx = clampFloat(fx, 0, float64(n-1))
		fy = clampFloat(fy, 0, float64(n-1))
		ix, iy := int(fx), int(fy)
		ix1, iy1 := min(ix+1, n-1), min(iy+1, n-1)
		ax, ay := fx-float64(ix), fy-float64(iy)

		p00 := window[iy*n+ix]
		p10 := window[iy*n+ix1]
		p01 := window[iy1*n+ix]
		p11 := window[iy1*n+ix1]
		bottom := p00 + (p10-p00)*ax
		top := p01 + (p11-p01)*ax
		return bottom + (top-bottom)*ay
	}

	step := 2 * math.Pi / solidSamples
	outer := rs + 0.5
	var acc r2.Vec
	for i := 0; i < solidSamples; i++ {
		sin, cos := math.Sincos(float64(i) * step)
		p := sample(cx+cos*outer, cy+sin*outer)
		acc.X += p * cos
		acc.Y += p * sin
	}
	return r2.Scale(-b.Radius*step, acc), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
