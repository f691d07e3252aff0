package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/ui"
)

const controlsLegend = "[Space] Pause  [R] Reset  [V] Field  [Tab] Panel  [P] Perf  [S] Snapshot  [B] Burst  [Drag] Stir"

// handleInput processes keyboard and mouse input before the tick.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		g.togglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyV) {
		cfg := g.sim.Config()
		cfg.RenderSource = ui.NextSource(cfg.RenderSource)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.panel.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.saveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyB) {
		g.Burst(5 + g.rng.Intn(20))
	}

	g.handlePointer()
}

// handlePointer records a left-button drag outside the control panel.
func (g *Game) handlePointer() {
	if !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		return
	}
	pos := rl.GetMousePosition()
	if g.panel.Contains(pos.X, pos.Y) {
		return
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.pointer.Randomize(g.rng)
	}
	delta := rl.GetMouseDelta()
	cfg := g.sim.Config()
	x, y := screenToDomain(float64(pos.X), float64(pos.Y), rl.GetScreenHeight(), cfg.Left, cfg.Bottom)
	// Screen y grows downward; domain y grows upward.
	g.drag = drag{active: true, x: x, y: y, dx: float64(delta.X), dy: -float64(delta.Y)}
}

// handleResize follows the window size when the domain tracks the screen.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	g.resizeScreen(w, h)
}

// resizeScreen applies a new screen size. The domain follows it only when
// the configured domain size is zero.
func (g *Game) resizeScreen(w, h int) {
	if g.soft != nil {
		g.soft.ResizeScreen(w, h)
		if g.pixels != nil {
			rl.UnloadTexture(g.screenTex)
			img := rl.GenImageColor(w, h, rl.Black)
			g.screenTex = rl.LoadTextureFromImage(img)
			rl.UnloadImage(img)
			g.pixels = make([]rl.Color, w*h)
		}
	}
	if g.panel != nil {
		g.panel = ui.NewControlPanel(int32(w)-270, 10, 260)
	}

	cfg := g.sim.Config()
	if g.cfg.Simulation.Width == 0 {
		cfg.Width = w
	}
	if g.cfg.Simulation.Height == 0 {
		cfg.Height = h
	}
	g.emitters.Bounds.Width = float64(cfg.Width)
	g.emitters.Bounds.Height = float64(cfg.Height)
	g.collector.RecordResize()
}

func (g *Game) togglePause() {
	if g.sim.Running() {
		g.sim.Pause()
	} else {
		g.sim.Resume()
	}
}

// saveSnapshot writes the current scene to the snapshot directory.
func (g *Game) saveSnapshot() {
	dir := g.opts.SnapshotDir
	if dir == "" {
		dir = "snapshots"
	}
	snap := telemetry.NewSnapshot(g.sim, g.tick, g.simTime)
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}
