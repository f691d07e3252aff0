package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Events during window
	PointerSplats int `csv:"pointer_splats"`
	EmitterSplats int `csv:"emitter_splats"`
	WallContacts  int `csv:"wall_contacts"`
	Resizes       int `csv:"resizes"`

	// Field state at window end
	DyeMass       float64 `csv:"dye_mass"` // Sum of the RGB channels over the dye grid
	DyeMax        float64 `csv:"dye_max"`
	VelocityMax   float64 `csv:"velocity_max"` // Largest velocity component magnitude
	PressureMin   float64 `csv:"pressure_min"`
	PressureMax   float64 `csv:"pressure_max"`
	DivergenceAbs float64 `csv:"divergence_abs"` // Largest |divergence|
	CurlAbs       float64 `csv:"curl_abs"`

	// Solids at window end
	Solids         int     `csv:"solids"`
	SolidSpeedMean float64 `csv:"solid_speed_mean"`
	SolidSpeedStd  float64 `csv:"solid_speed_std"`
	SolidSpeedP10  float64 `csv:"solid_speed_p10"`
	SolidSpeedP50  float64 `csv:"solid_speed_p50"`
	SolidSpeedP90  float64 `csv:"solid_speed_p90"`
	SolidKinetic   float64 `csv:"solid_kinetic"` // Σ ½·m·|v|²
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution calculates mean, population std and percentiles.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	return Distribution{
		Mean: mean,
		Std:  math.Sqrt(stat.MomentAbout(2, sorted, mean, nil)),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("pointer_splats", s.PointerSplats),
		slog.Int("emitter_splats", s.EmitterSplats),
		slog.Int("wall_contacts", s.WallContacts),
		slog.Int("resizes", s.Resizes),
		slog.Float64("dye_mass", s.DyeMass),
		slog.Float64("dye_max", s.DyeMax),
		slog.Float64("velocity_max", s.VelocityMax),
		slog.Float64("pressure_min", s.PressureMin),
		slog.Float64("pressure_max", s.PressureMax),
		slog.Float64("divergence_abs", s.DivergenceAbs),
		slog.Float64("curl_abs", s.CurlAbs),
		slog.Int("solids", s.Solids),
		slog.Float64("solid_speed_mean", s.SolidSpeedMean),
		slog.Float64("solid_speed_p90", s.SolidSpeedP90),
		slog.Float64("solid_kinetic", s.SolidKinetic),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
