// Package telemetry provides run statistics, performance profiling, CSV
// output and scene snapshots.
package telemetry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/plume/fluid"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	windowStartTick int32
	windowElapsed   float64
	simTime         float64

	pointerSplats int
	emitterSplats int
	wallContacts  int
	resizes       int
}

// NewCollector creates a collector that flushes every windowDurationSec of
// simulated time.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 1
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// Advance adds dt seconds of simulated time.
func (c *Collector) Advance(dt float64) {
	c.windowElapsed += dt
	c.simTime += dt
}

// RecordPointerSplat records a splat from the pointer.
func (c *Collector) RecordPointerSplat() { c.pointerSplats++ }

// RecordEmitterSplat records a splat from an emitter.
func (c *Collector) RecordEmitterSplat() { c.emitterSplats++ }

// RecordWallContacts records n solid wall contacts.
func (c *Collector) RecordWallContacts(n int) { c.wallContacts += n }

// RecordResize records a domain resize.
func (c *Collector) RecordResize() { c.resizes++ }

// ShouldFlush returns true once the window's simulated time has elapsed.
func (c *Collector) ShouldFlush() bool {
	return c.windowElapsed >= c.windowDurationSec
}

// Flush summarises fields (from SampleFields) and solids into a WindowStats
// and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, fields []fluid.FieldStats, solids []*fluid.Solid) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      c.simTime,
		PointerSplats:   c.pointerSplats,
		EmitterSplats:   c.emitterSplats,
		WallContacts:    c.wallContacts,
		Resizes:         c.resizes,
	}

	for _, fs := range fields {
		switch fs.Kind {
		case fluid.FieldDye:
			stats.DyeMass += fs.Sum
			stats.DyeMax = max(stats.DyeMax, fs.Max)
		case fluid.FieldVelocity:
			stats.VelocityMax = max(stats.VelocityMax, fs.Max, -fs.Min)
		case fluid.FieldPressure:
			stats.PressureMin, stats.PressureMax = fs.Min, fs.Max
		case fluid.FieldDivergence:
			stats.DivergenceAbs = max(fs.Max, -fs.Min)
		case fluid.FieldCurl:
			stats.CurlAbs = max(fs.Max, -fs.Min)
		}
	}

	speeds := make([]float64, 0, len(solids))
	for _, b := range solids {
		if b == nil {
			continue
		}
		v := r2.Norm(b.Velocity)
		speeds = append(speeds, v)
		stats.SolidKinetic += 0.5 * b.EffectiveMass() * v * v
	}
	d := ComputeDistribution(speeds)
	stats.Solids = len(speeds)
	stats.SolidSpeedMean = d.Mean
	stats.SolidSpeedStd = d.Std
	stats.SolidSpeedP10 = d.P10
	stats.SolidSpeedP50 = d.P50
	stats.SolidSpeedP90 = d.P90

	c.windowStartTick = currentTick
	c.windowElapsed = 0
	c.pointerSplats = 0
	c.emitterSplats = 0
	c.wallContacts = 0
	c.resizes = 0

	return stats
}

// fieldChannels lists the channels sampled per field.
var fieldChannels = []struct {
	kind     fluid.FieldKind
	channels int
}{
	{fluid.FieldDye, 3},
	{fluid.FieldVelocity, 2},
	{fluid.FieldPressure, 1},
	{fluid.FieldDivergence, 1},
	{fluid.FieldCurl, 1},
}

// SampleFields reads every meaningful channel of every field. This stalls
// until the engine has finished all pending passes.
func SampleFields(sim *fluid.Simulation) ([]fluid.FieldStats, error) {
	var out []fluid.FieldStats
	for _, fc := range fieldChannels {
		for ch := 0; ch < fc.channels; ch++ {
			fs, err := sim.Statistics(fc.kind, ch)
			if err != nil {
				return nil, fmt.Errorf("sampling %s[%d]: %w", fc.kind, ch, err)
			}
			out = append(out, fs)
		}
	}
	return out, nil
}
