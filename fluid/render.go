package fluid

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/plume/gpu"
)

// Render draws the configured render source into the domain's rectangle on
// the engine's screen.
func (s *Simulation) Render() error {
	kind, err := ParseFieldKind(s.cfg.RenderSource)
	if err != nil {
		return err
	}
	src, err := s.Field(kind)
	if err != nil {
		return err
	}

	s.phase(PhaseRender)
	return s.runIn(progDisplay, gpu.Params{
		"uSource":   tex(src),
		"transform": mat4(s.visualization(kind)),
	}, s.eng.Screen(), gpu.Viewport{
		X:      s.cfg.Left,
		Y:      s.cfg.Bottom,
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
	})
}

// visualization resolves the render matrix for k: the configured override,
// or the default table entry times the configured scale.
func (s *Simulation) visualization(k FieldKind) mat.Matrix {
	v := s.cfg.visual(k)
	if v.Transform != nil {
		return v.Transform
	}
	return DefaultVisualization(k, v.Scale)
}
