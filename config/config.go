// Package config provides configuration loading and access for the demo.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/gpu"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted by engine.backend.
const (
	BackendRaylib   = "raylib"
	BackendSoftware = "software"
)

// Config holds all demo configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Render     RenderConfig     `yaml:"render"`
	Engine     EngineConfig     `yaml:"engine"`
	Solids     []SolidConfig    `yaml:"solids"`
	Emitters   []EmitterConfig  `yaml:"emitters"`
	Pointer    PointerConfig    `yaml:"pointer"`
	Bounds     BoundsConfig     `yaml:"bounds"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig maps onto fluid.Config.
type SimulationConfig struct {
	Width               int     `yaml:"width"`  // Domain width in pixels (0 = screen width)
	Height              int     `yaml:"height"` // Domain height in pixels (0 = screen height)
	Left                int     `yaml:"left"`
	Bottom              int     `yaml:"bottom"`
	SimScale            float64 `yaml:"sim_scale"`
	DyeScale            float64 `yaml:"dye_scale"`
	VelocityDissipation float64 `yaml:"velocity_dissipation"`
	DyeDissipation      float64 `yaml:"dye_dissipation"`
	PressureDissipation float64 `yaml:"pressure_dissipation"`
	PressureIterations  int     `yaml:"pressure_iterations"`
	CurlStrength        float64 `yaml:"curl_strength"`
	MaxStep             float64 `yaml:"max_step"` // Upper bound on dt in seconds
}

// RenderConfig selects the displayed field and how each field is drawn.
type RenderConfig struct {
	Source  string                  `yaml:"source"`
	Visuals map[string]VisualConfig `yaml:"visuals"`
}

// VisualConfig overrides the display of one field. Transform, when set,
// holds 16 row-major values and replaces the scaled default.
type VisualConfig struct {
	Scale     float64   `yaml:"scale"`
	Transform []float64 `yaml:"transform,omitempty"`
}

// EngineConfig picks the shader backend.
type EngineConfig struct {
	Backend   string `yaml:"backend"`
	Precision string `yaml:"precision"`
}

// SolidConfig places one body at startup.
type SolidConfig struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	VX      float64 `yaml:"vx"`
	VY      float64 `yaml:"vy"`
	Radius  float64 `yaml:"radius"`
	Mass    float64 `yaml:"mass"`    // 0 = derive from density
	Density float64 `yaml:"density"` // Mass per square pixel
}

// EmitterConfig describes a dye and velocity source.
type EmitterConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Angle    float64 `yaml:"angle"`
	Major    float64 `yaml:"major"`
	Minor    float64 `yaml:"minor"`
	DX       float64 `yaml:"dx"`
	DY       float64 `yaml:"dy"`
	Hue      float64 `yaml:"hue"`      // Degrees; negative cycles through hues
	Lifetime float64 `yaml:"lifetime"` // Seconds; 0 = forever
	Sway     float64 `yaml:"sway"`     // Max jet rotation in radians; 0 = steady
}

// PointerConfig controls mouse splats.
type PointerConfig struct {
	Radius       float64 `yaml:"radius"`
	Force        float64 `yaml:"force"`         // Multiplier on drag speed
	DyeIntensity float64 `yaml:"dye_intensity"` // Value of the HSV colour
	HueSpeed     float64 `yaml:"hue_speed"`     // Hue revolutions per second
}

// BoundsConfig holds the solid containment parameters.
type BoundsConfig struct {
	Restitution float64 `yaml:"restitution"` // Fraction of speed kept on wall contact
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds between stats records
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged per perf record
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	DomainW   int
	DomainH   int
	Precision gpu.Precision
}

var global *Config

// Init loads configuration from path (empty = defaults only) and sets the
// global config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is Init that panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global config. Init must have been called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults, overlays the file at path if any, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) computeDerived() error {
	c.Derived.DomainW = c.Simulation.Width
	if c.Derived.DomainW == 0 {
		c.Derived.DomainW = c.Screen.Width
	}
	c.Derived.DomainH = c.Simulation.Height
	if c.Derived.DomainH == 0 {
		c.Derived.DomainH = c.Screen.Height
	}

	switch strings.ToLower(c.Engine.Precision) {
	case "", "half":
		c.Derived.Precision = gpu.PrecisionHalf
	case "float":
		c.Derived.Precision = gpu.PrecisionFloat
	default:
		return fmt.Errorf("engine.precision: unknown value %q", c.Engine.Precision)
	}

	switch c.Engine.Backend {
	case "", BackendRaylib, BackendSoftware:
	default:
		return fmt.Errorf("engine.backend: unknown value %q", c.Engine.Backend)
	}

	if _, err := fluid.ParseFieldKind(c.Render.Source); err != nil {
		return fmt.Errorf("render.source: %w", err)
	}
	for name, v := range c.Render.Visuals {
		if _, err := fluid.ParseFieldKind(name); err != nil {
			return fmt.Errorf("render.visuals: %w", err)
		}
		if len(v.Transform) != 0 && len(v.Transform) != 16 {
			return fmt.Errorf("render.visuals.%s.transform: want 16 values, got %d", name, len(v.Transform))
		}
	}
	return nil
}

// Fluid converts the simulation and render sections into a fluid.Config.
func (c *Config) Fluid() fluid.Config {
	s := c.Simulation
	fc := fluid.Config{
		Width:               c.Derived.DomainW,
		Height:              c.Derived.DomainH,
		Left:                s.Left,
		Bottom:              s.Bottom,
		SimScale:            s.SimScale,
		DyeScale:            s.DyeScale,
		VelocityDissipation: s.VelocityDissipation,
		DyeDissipation:      s.DyeDissipation,
		PressureDissipation: s.PressureDissipation,
		PressureIterations:  s.PressureIterations,
		CurlStrength:        s.CurlStrength,
		MaxSimulationStep:   s.MaxStep,
		RenderSource:        c.Render.Source,
		Precision:           c.Derived.Precision,
	}

	if len(c.Render.Visuals) > 0 {
		fc.Visuals = make(map[fluid.FieldKind]fluid.Visual, len(c.Render.Visuals))
		for name, v := range c.Render.Visuals {
			k, err := fluid.ParseFieldKind(name)
			if err != nil {
				continue // rejected by computeDerived
			}
			vis := fluid.Visual{Scale: v.Scale}
			if vis.Scale == 0 {
				vis.Scale = 1
			}
			if len(v.Transform) == 16 {
				vis.Transform = mat.NewDense(4, 4, append([]float64(nil), v.Transform...))
			}
			fc.Visuals[k] = vis
		}
	}
	return fc
}

// NewSolids builds the configured bodies.
func (c *Config) NewSolids() []*fluid.Solid {
	out := make([]*fluid.Solid, 0, len(c.Solids))
	for _, sc := range c.Solids {
		out = append(out, &fluid.Solid{
			Position: r2.Vec{X: sc.X, Y: sc.Y},
			Velocity: r2.Vec{X: sc.VX, Y: sc.VY},
			Radius:   sc.Radius,
			Mass:     sc.Mass,
			Density:  sc.Density,
		})
	}
	return out
}

// WriteYAML saves the configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
