package game

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/ui"
)

// Frame runs one graphics-mode frame: input, tick, overlays. The tick
// renders the field straight to the window, so it runs inside the drawing
// block.
func (g *Game) Frame() error {
	g.handleInput()
	g.perf.RecordFrame()

	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.Black)

	if err := g.step(time.Now()); err != nil {
		return err
	}
	if g.pixels != nil {
		rl.DrawTexture(g.screenTex, 0, 0, rl.White)
	}
	g.drawSolids()
	g.drawOverlay()
	return nil
}

// drawSolids outlines every solid; the fluid core does not draw them.
func (g *Game) drawSolids() {
	cfg := g.sim.Config()
	screenH := rl.GetScreenHeight()
	for _, b := range g.sim.Solids {
		if b == nil {
			continue
		}
		x, y := domainToScreen(b.Position.X, b.Position.Y, screenH, cfg.Left, cfg.Bottom)
		rl.DrawCircleLines(int32(x), int32(y), float32(b.Radius), rl.RayWhite)
	}
}

func (g *Game) drawOverlay() {
	cfg := g.sim.Config()
	g.hud.Draw(ui.HUDData{
		Title:        "Plume",
		Tick:         g.tick,
		FPS:          rl.GetFPS(),
		Paused:       !g.sim.Running(),
		Source:       cfg.RenderSource,
		Solids:       len(g.sim.Solids),
		Emitters:     g.emitters.Count(),
		TickDuration: g.sim.TickDuration(),
		Backend:      g.backend(),
	})
	if g.showPerf {
		g.perfPanel.Draw(g.perf.Stats(), append(fluid.Phases(), telemetry.PhaseHooks))
	}

	act := g.panel.Draw(cfg, !g.sim.Running())
	if act.TogglePause {
		g.togglePause()
	}
	if act.Reset {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if act.Snapshot {
		g.saveSnapshot()
	}
	g.hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)
}
