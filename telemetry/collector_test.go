package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/gpu"
	"github.com/pthm-cable/plume/gpu/software"
)

func newTestSim(t *testing.T, w, h int) *fluid.Simulation {
	t.Helper()
	eng := software.New(w, h)
	t.Cleanup(eng.Close)
	cfg := fluid.DefaultConfig(w, h)
	cfg.Precision = gpu.PrecisionFloat
	sim, err := fluid.New(eng, &cfg)
	if err != nil {
		t.Fatalf("fluid.New: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(0.5)
	c.Advance(0.2)
	if c.ShouldFlush() {
		t.Error("flush requested before window elapsed")
	}
	c.Advance(0.3)
	if !c.ShouldFlush() {
		t.Error("flush not requested after window elapsed")
	}
}

func TestCollectorFlush(t *testing.T) {
	sim := newTestSim(t, 32, 32)
	if err := sim.SetDye(16, 16, 0, 4, 4, [3]float64{1, 0.5, 0}); err != nil {
		t.Fatalf("SetDye: %v", err)
	}
	sim.Solids = []*fluid.Solid{
		{Position: r2.Vec{X: 8, Y: 8}, Velocity: r2.Vec{X: 3, Y: 4}, Radius: 2, Mass: 2},
		{Position: r2.Vec{X: 20, Y: 20}, Radius: 2, Mass: 1},
	}

	c := NewCollector(1)
	c.RecordPointerSplat()
	c.RecordEmitterSplat()
	c.RecordEmitterSplat()
	c.RecordWallContacts(3)
	c.Advance(1)

	fields, err := SampleFields(sim)
	if err != nil {
		t.Fatalf("SampleFields: %v", err)
	}
	stats := c.Flush(60, fields, sim.Solids)
	if stats.PointerSplats != 1 || stats.EmitterSplats != 2 || stats.WallContacts != 3 {
		t.Errorf("event counts %+v", stats)
	}
	if stats.WindowEndTick != 60 || stats.SimTimeSec != 1 {
		t.Errorf("window end %d at %v", stats.WindowEndTick, stats.SimTimeSec)
	}
	if stats.DyeMass <= 0 || stats.DyeMax < 0.9 {
		t.Errorf("dye mass %v max %v, want a splat", stats.DyeMass, stats.DyeMax)
	}
	if stats.Solids != 2 {
		t.Errorf("solids = %d, want 2", stats.Solids)
	}
	if math.Abs(stats.SolidKinetic-25) > 1e-9 {
		t.Errorf("kinetic = %v, want 25", stats.SolidKinetic)
	}
	if math.Abs(stats.SolidSpeedMean-2.5) > 1e-9 {
		t.Errorf("mean speed = %v, want 2.5", stats.SolidSpeedMean)
	}

	if c.ShouldFlush() {
		t.Error("window not reset after flush")
	}
	again := c.Flush(61, nil, nil)
	if again.PointerSplats != 0 || again.WindowStartTick != 60 {
		t.Errorf("counters not reset: %+v", again)
	}
}

func TestSampleFieldsCoversChannels(t *testing.T) {
	sim := newTestSim(t, 16, 16)
	fields, err := SampleFields(sim)
	if err != nil {
		t.Fatalf("SampleFields: %v", err)
	}
	if len(fields) != 8 {
		t.Errorf("got %d samples, want 8", len(fields))
	}
	for _, fs := range fields {
		if fs.Sum != 0 {
			t.Errorf("%s[%d] sum = %v on a fresh simulation", fs.Kind, fs.Channel, fs.Sum)
		}
	}
}
