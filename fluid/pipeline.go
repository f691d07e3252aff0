package fluid

import "github.com/pthm-cable/plume/gpu"

// Step advances the fluid and every solid by dt seconds. dt is clamped to
// [0, MaxSimulationStep]. Each pass reads the previous pass's output, so the
// order below is a strict dependency chain.
func (s *Simulation) Step(dt float64) error {
	dt = s.clampStep(dt)
	cfg := s.cfg
	texel := s.velocity.TexelSize()
	fdt := gpu.Float(dt)

	s.phase(PhaseCurl)
	if err := s.run(progCurl, gpu.Params{
		"uVelocity": tex(s.velocity.Read()),
		"texelSize": texel,
	}, s.curl.Target()); err != nil {
		return err
	}

	s.phase(PhaseVorticity)
	if err := s.run(progVorticity, gpu.Params{
		"uVelocity": tex(s.velocity.Read()),
		"uCurl":     tex(s.curl.Target()),
		"texelSize": texel,
		"curl":      gpu.Float(cfg.CurlStrength),
		"dt":        fdt,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	s.phase(PhaseDivergence)
	if err := s.run(progDivergence, gpu.Params{
		"uVelocity": tex(s.velocity.Read()),
		"texelSize": texel,
	}, s.divergence.Target()); err != nil {
		return err
	}

	if cfg.PressureDissipation > 0 {
		s.phase(PhaseDissipation)
		k := float32(max(1-cfg.PressureDissipation*dt, 0))
		if err := s.run(progCopy, gpu.Params{
			"uSource": tex(s.pressure.Read()),
			"scale":   gpu.Vec4{k, k, k, 1},
		}, s.pressure.Write()); err != nil {
			return err
		}
		s.pressure.Swap()
	}

	s.phase(PhasePressure)
	for i := 0; i < cfg.PressureIterations; i++ {
		if err := s.run(progPressure, gpu.Params{
			"uPressure":   tex(s.pressure.Read()),
			"uDivergence": tex(s.divergence.Target()),
			"texelSize":   texel,
		}, s.pressure.Write()); err != nil {
			return err
		}
		s.pressure.Swap()
	}

	s.phase(PhaseGradient)
	if err := s.run(progGradient, gpu.Params{
		"uPressure": tex(s.pressure.Read()),
		"uVelocity": tex(s.velocity.Read()),
		"texelSize": texel,
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	s.phase(PhaseAdvection)
	if err := s.run(progAdvection, gpu.Params{
		"uVelocity":   tex(s.velocity.Read()),
		"uSource":     tex(s.velocity.Read()),
		"texelSize":   texel,
		"dt":          fdt,
		"dissipation": gpu.Float(cfg.VelocityDissipation),
	}, s.velocity.Write()); err != nil {
		return err
	}
	s.velocity.Swap()

	// Velocity is in velocity-grid texels per second, so the dye trace uses
	// the velocity texel size too.
	if err := s.run(progAdvection, gpu.Params{
		"uVelocity":   tex(s.velocity.Read()),
		"uSource":     tex(s.dye.Read()),
		"texelSize":   texel,
		"dt":          fdt,
		"dissipation": gpu.Float(cfg.DyeDissipation),
	}, s.dye.Write()); err != nil {
		return err
	}
	s.dye.Swap()

	s.phase(PhaseSolids)
	return s.updateSolids(dt)
}
