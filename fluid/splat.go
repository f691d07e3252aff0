package fluid

import "github.com/pthm-cable/plume/gpu"

// SetVelocity adds a Gaussian velocity splat of (dx, dy) pixels per second
// centred on (x, y), with its major axis rotated by angle radians on screen.
func (s *Simulation) SetVelocity(x, y, angle, major, minor, dx, dy float64) error {
	sc := s.cfg.SimScale
	return s.splat(s.velocity, x, y, angle, major, minor, gpu.Vec3{float32(dx * sc), float32(dy * sc), 0})
}

// SetDye adds a Gaussian splat of color centred on (x, y).
func (s *Simulation) SetDye(x, y, angle, major, minor float64, color [3]float64) error {
	return s.splat(s.dye, x, y, angle, major, minor, gpu.Vec3{float32(color[0]), float32(color[1]), float32(color[2])})
}

func (s *Simulation) splat(f *DoubleField, x, y, angle, major, minor float64, color gpu.Vec3) error {
	w, h := float64(s.cfg.Width), float64(s.cfg.Height)
	u, v := ToNormalized(x, y, w, h)
	if err := s.run(progSplat, gpu.Params{
		"uTarget": tex(f.Read()),
		"point":   gpu.Vec2{float32(u), float32(v)},
		"color":   color,
		"ellipse": mat2(EllipseTransform(angle, major, minor, w, h)),
	}, f.Write()); err != nil {
		return err
	}
	f.Swap()
	return nil
}

// setCircle overwrites velocity inside a circle of radius r pixels with
// (dx, dy) in velocity-grid texels per second.
func (s *Simulation) setCircle(x, y, r, dx, dy float64) error {
	w, h := float64(s.cfg.Width), float64(s.cfg.Height)
	u, v := ToNormalized(x, y, w, h)
	if err := s.run(progCircle, gpu.Params{
		"uTarget": tex(s.velocity.Read()),
		"point":   gpu.Vec2{float32(u), float32(v)},
		"value":   gpu.Vec3{float32(dx), float32(dy), 0},
		"ellipse": mat2(EllipseTransform(0, r, r, w, h)),
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()
	return nil
}
