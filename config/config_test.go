package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/gpu"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.DomainW != cfg.Screen.Width || cfg.Derived.DomainH != cfg.Screen.Height {
		t.Errorf("domain %dx%d, want screen size %dx%d",
			cfg.Derived.DomainW, cfg.Derived.DomainH, cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Derived.Precision != gpu.PrecisionHalf {
		t.Errorf("precision = %v, want half", cfg.Derived.Precision)
	}

	fc := cfg.Fluid()
	if err := fc.Validate(); err != nil {
		t.Errorf("default fluid config invalid: %v", err)
	}
	if fc.PressureIterations != 20 || fc.CurlStrength != 30 {
		t.Errorf("unexpected defaults: iterations=%d curl=%v", fc.PressureIterations, fc.CurlStrength)
	}
	if v, ok := fc.Visuals[fluid.FieldPressure]; !ok || v.Scale != 0.5 {
		t.Errorf("pressure visual = %+v, %v", v, ok)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := writeFile(t, `
simulation:
  width: 300
  curl_strength: 5
engine:
  precision: float
render:
  source: pressure
solids: []
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.DomainW != 300 {
		t.Errorf("domain width = %d, want 300", cfg.Derived.DomainW)
	}
	if cfg.Derived.DomainH != cfg.Screen.Height {
		t.Errorf("domain height = %d, want screen height", cfg.Derived.DomainH)
	}
	if cfg.Simulation.SimScale != 0.5 {
		t.Errorf("sim_scale lost its default: %v", cfg.Simulation.SimScale)
	}
	fc := cfg.Fluid()
	if fc.CurlStrength != 5 || fc.RenderSource != "pressure" || fc.Precision != gpu.PrecisionFloat {
		t.Errorf("overrides not applied: %+v", fc)
	}
	if n := len(cfg.NewSolids()); n != 0 {
		t.Errorf("got %d solids, want 0", n)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"precision", "engine:\n  precision: double\n"},
		{"backend", "engine:\n  backend: vulkan\n"},
		{"source", "render:\n  source: vorticity\n"},
		{"visual name", "render:\n  visuals:\n    speed:\n      scale: 1\n"},
		{"transform length", "render:\n  visuals:\n    dye:\n      transform: [1, 0, 0]\n"},
		{"syntax", "screen: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVisualTransformOverride(t *testing.T) {
	path := writeFile(t, `
render:
  visuals:
    dye:
      transform: [0,0,0,0, 0,0,0,0, 0,0,0,0, 0,0,0,1]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := cfg.Fluid().Visuals[fluid.FieldDye]
	if v.Transform == nil {
		t.Fatal("transform not set")
	}
	if v.Transform.At(3, 3) != 1 || v.Transform.At(0, 0) != 0 {
		t.Errorf("transform not row-major: %v", v.Transform.RawMatrix().Data)
	}
}

func TestNewSolids(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	solids := cfg.NewSolids()
	if len(solids) != len(cfg.Solids) {
		t.Fatalf("got %d solids, want %d", len(solids), len(cfg.Solids))
	}
	first := cfg.Solids[0]
	if solids[0].Position.X != first.X || solids[0].Radius != first.Radius {
		t.Errorf("solid 0 = %+v, want %+v", solids[0], first)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Simulation.PressureIterations = 7
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if back.Simulation.PressureIterations != 7 {
		t.Errorf("pressure_iterations = %d, want 7", back.Simulation.PressureIterations)
	}
}

func TestCfgAfterInit(t *testing.T) {
	MustInit("")
	if Cfg().Screen.Width == 0 {
		t.Error("Cfg returned zero screen width")
	}
}
