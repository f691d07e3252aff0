package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/fluid"
)

// SliderDescriptor binds one slider to a fluid.Config parameter.
type SliderDescriptor struct {
	Label    string
	Min, Max float64
	Format   string
	Integer  bool // Round to whole numbers
	Get      func(*fluid.Config) float64
	Set      func(*fluid.Config, float64)
}

// Apply clamps v to the slider range, rounds integer sliders and writes it
// to cfg. It reports whether the value changed.
func (d SliderDescriptor) Apply(cfg *fluid.Config, v float64) bool {
	v = math.Min(math.Max(v, d.Min), d.Max)
	if d.Integer {
		v = math.Round(v)
	}
	if v == d.Get(cfg) {
		return false
	}
	d.Set(cfg, v)
	return true
}

// FluidSliders lists the live-tunable simulation parameters.
func FluidSliders() []SliderDescriptor {
	return []SliderDescriptor{
		{
			Label: "Curl", Min: 0, Max: 60, Format: "%.0f",
			Get: func(c *fluid.Config) float64 { return c.CurlStrength },
			Set: func(c *fluid.Config, v float64) { c.CurlStrength = v },
		},
		{
			Label: "Pressure iterations", Min: 1, Max: 80, Format: "%.0f", Integer: true,
			Get: func(c *fluid.Config) float64 { return float64(c.PressureIterations) },
			Set: func(c *fluid.Config, v float64) { c.PressureIterations = int(v) },
		},
		{
			Label: "Velocity dissipation", Min: 0, Max: 4, Format: "%.2f",
			Get: func(c *fluid.Config) float64 { return c.VelocityDissipation },
			Set: func(c *fluid.Config, v float64) { c.VelocityDissipation = v },
		},
		{
			Label: "Dye dissipation", Min: 0, Max: 4, Format: "%.2f",
			Get: func(c *fluid.Config) float64 { return c.DyeDissipation },
			Set: func(c *fluid.Config, v float64) { c.DyeDissipation = v },
		},
		{
			Label: "Pressure dissipation", Min: 0, Max: 4, Format: "%.2f",
			Get: func(c *fluid.Config) float64 { return c.PressureDissipation },
			Set: func(c *fluid.Config, v float64) { c.PressureDissipation = v },
		},
		{
			Label: "Sim scale", Min: 0.125, Max: 1, Format: "%.3f",
			Get: func(c *fluid.Config) float64 { return c.SimScale },
			Set: func(c *fluid.Config, v float64) { c.SimScale = v },
		},
		{
			Label: "Dye scale", Min: 0.25, Max: 1, Format: "%.2f",
			Get: func(c *fluid.Config) float64 { return c.DyeScale },
			Set: func(c *fluid.Config, v float64) { c.DyeScale = v },
		},
	}
}

// NextSource returns the field after current in FieldKinds order, wrapping.
// An unknown current yields the first field.
func NextSource(current string) string {
	kinds := fluid.FieldKinds()
	k, err := fluid.ParseFieldKind(current)
	if err != nil {
		return kinds[0].String()
	}
	return kinds[(int(k)+1)%len(kinds)].String()
}

// Actions reports buttons pressed during a ControlPanel.Draw.
type Actions struct {
	TogglePause bool
	Reset       bool
	Snapshot    bool
}

// ControlPanel renders raygui sliders bound to a fluid.Config.
type ControlPanel struct {
	renderer *Renderer
	sliders  []SliderDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewControlPanel creates a panel at (x, y).
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		sliders:  FluidSliders(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool { return c.visible }

// Contains reports whether the screen point lies on the visible panel.
func (c *ControlPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height())
}

func (c *ControlPanel) height() int32 {
	pad := c.renderer.Theme.Padding
	return pad*2 + 24 + int32(len(c.sliders))*36 + 3*36
}

// Draw renders the panel, writes slider changes into cfg and returns the
// pressed buttons. Changes to scales take effect on the next tick.
func (c *ControlPanel) Draw(cfg *fluid.Config, paused bool) Actions {
	var act Actions
	if !c.visible {
		return act
	}

	r := c.renderer
	pad := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + pad)
	y := c.y + pad
	inner := float32(c.width - pad*2)
	y = r.DrawSectionHeader(c.x+pad, y, "Fluid")
	y += 8

	for _, s := range c.sliders {
		rl.DrawText(s.Label, int32(x), y, r.Theme.FontSize, r.Theme.LabelColor)
		y += 14
		cur := float32(s.Get(cfg))
		v := gui.SliderBar(
			rl.Rectangle{X: x, Y: float32(y), Width: inner - 60, Height: 16},
			"", "",
			cur, float32(s.Min), float32(s.Max),
		)
		// float32 round trips would otherwise nudge the config every frame.
		if v != cur {
			s.Apply(cfg, float64(v))
		}
		rl.DrawText(fmt.Sprintf(s.Format, s.Get(cfg)), int32(x+inner-52), y+2, r.Theme.FontSize, r.Theme.ValueColor)
		y += 22
	}

	half := (inner - 8) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 26}, "Show: "+cfg.RenderSource) {
		cfg.RenderSource = NextSource(cfg.RenderSource)
	}
	y += 36

	act.TogglePause = gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 26}, toggleText(paused, "Resume", "Pause"))
	act.Reset = gui.Button(rl.Rectangle{X: x + half + 8, Y: float32(y), Width: half, Height: 26}, "Reset")
	y += 36

	act.Snapshot = gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 26}, "Save snapshot")
	return act
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
