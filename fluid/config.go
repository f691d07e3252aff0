package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/plume/gpu"
)

// Visual controls how one field is drawn by Render.
type Visual struct {
	// Scale multiplies the default visualisation matrix for the field.
	Scale float64
	// Transform, when non-nil, replaces the scaled default with an explicit
	// 4×4 matrix applied to each RGBA sample.
	Transform *mat.Dense
}

// Config holds the live simulation parameters. Changes take effect on the
// next Tick; size changes trigger a resize.
type Config struct {
	// Domain size and placement on the screen, in pixels.
	Width, Height int
	Left, Bottom  int

	// SimScale sets the velocity/pressure/divergence/curl grid resolution
	// relative to the domain; DyeScale does the same for dye.
	SimScale float64
	DyeScale float64

	// Exponential decay rates per second.
	VelocityDissipation float64
	DyeDissipation      float64
	PressureDissipation float64

	PressureIterations int
	CurlStrength       float64

	// MaxSimulationStep bounds dt in seconds.
	MaxSimulationStep float64

	// RenderSource names the field Render draws.
	RenderSource string
	Visuals      map[FieldKind]Visual

	Precision gpu.Precision
}

// DefaultConfig returns a width×height domain with the stock parameters.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:               width,
		Height:              height,
		SimScale:            0.5,
		DyeScale:            1,
		VelocityDissipation: 0.2,
		DyeDissipation:      1,
		PressureDissipation: 0,
		PressureIterations:  20,
		CurlStrength:        30,
		MaxSimulationStep:   1.0 / 60,
		RenderSource:        FieldDye.String(),
		Precision:           gpu.PrecisionHalf,
	}
}

// Validate reports whether the configuration describes a usable grid.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: domain %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.SimScale <= 0 || c.DyeScale <= 0 {
		return fmt.Errorf("%w: scales sim=%v dye=%v", ErrInvalidConfig, c.SimScale, c.DyeScale)
	}
	if c.PressureIterations < 0 {
		return fmt.Errorf("%w: pressure iterations %d", ErrInvalidConfig, c.PressureIterations)
	}
	return nil
}

// SimSize is the velocity grid resolution.
func (c *Config) SimSize() (int, int) {
	return gridSize(c.Width, c.SimScale), gridSize(c.Height, c.SimScale)
}

// DyeSize is the dye grid resolution.
func (c *Config) DyeSize() (int, int) {
	return gridSize(c.Width, c.DyeScale), gridSize(c.Height, c.DyeScale)
}

func gridSize(n int, scale float64) int {
	return max(1, int(math.Ceil(float64(n)*scale)))
}

// visual returns the configured visual for k, defaulting to scale 1.
func (c *Config) visual(k FieldKind) Visual {
	v, ok := c.Visuals[k]
	if !ok {
		return Visual{Scale: 1}
	}
	return v
}

// sizeKey captures every parameter that requires reallocating fields.
type sizeKey struct {
	width, height      int
	simScale, dyeScale float64
	precision          gpu.Precision
}

func (c *Config) sizeKey() sizeKey {
	return sizeKey{
		width:     c.Width,
		height:    c.Height,
		simScale:  c.SimScale,
		dyeScale:  c.DyeScale,
		precision: c.Precision,
	}
}
