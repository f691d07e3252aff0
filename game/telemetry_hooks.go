package game

import (
	"log/slog"

	"github.com/pthm-cable/plume/telemetry"
)

// flushTelemetry closes the stats window once enough simulated time has
// passed: it samples the fields, logs and writes CSV records.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush() {
		return
	}

	fields, err := telemetry.SampleFields(g.sim)
	if err != nil {
		slog.Error("failed to sample fields", "error", err)
		return
	}
	stats := g.collector.Flush(g.tick, fields, g.sim.Solids)
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.output.WriteSolids(g.tick, g.sim.Solids); err != nil {
			slog.Error("failed to write solids", "error", err)
		}
		if err := g.output.WriteFields(g.tick, fields); err != nil {
			slog.Error("failed to write fields", "error", err)
		}
	}
}

// SetStatsCallback registers fn to receive every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}
