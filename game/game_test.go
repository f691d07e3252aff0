package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/telemetry"
)

const smallScene = `
screen:
  width: 64
  height: 48
  target_fps: 60
simulation:
  sim_scale: 0.5
  pressure_iterations: 4
engine:
  backend: software
solids:
  - x: 32
    y: 24
    radius: 4
    density: 0.05
emitters:
  - x: 8
    y: 24
    major: 6
    minor: 3
    dx: 200
    dy: 0
    hue: 30
    lifetime: 0
  - x: 56
    y: 24
    major: 4
    minor: 4
    dx: -50
    hue: -1
    lifetime: 0.05
telemetry:
  stats_window: 0.1
  perf_collector_window: 10
`

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(smallScene), 0644); err != nil {
		t.Fatal(err)
	}
	if err := config.Init(path); err != nil {
		t.Fatalf("config.Init: %v", err)
	}
	opts.Headless = true
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func runTicks(t *testing.T, g *Game, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}

func TestHeadlessRun(t *testing.T) {
	g := newTestGame(t, Options{})
	if g.SoftwareEngine() == nil {
		t.Fatal("headless game is not on the software engine")
	}

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) { windows = append(windows, s) })

	runTicks(t, g, 20)
	if g.Tick() != 20 {
		t.Errorf("tick = %d, want 20", g.Tick())
	}
	if len(windows) == 0 {
		t.Fatal("no stats windows flushed")
	}
	last := windows[len(windows)-1]
	if last.DyeMass <= 0 {
		t.Errorf("emitters left no dye: %+v", last)
	}
	if last.EmitterSplats == 0 {
		t.Error("no emitter splats recorded")
	}
	if last.Solids != 1 {
		t.Errorf("solids = %d, want 1", last.Solids)
	}

	// The short-lived emitter has expired.
	if n := g.emitters.Count(); n != 1 {
		t.Errorf("emitters = %d, want 1", n)
	}

	cfg := g.Sim().Config()
	for _, b := range g.Sim().Solids {
		if b.Position.X < b.Radius || b.Position.X > float64(cfg.Width)-b.Radius ||
			b.Position.Y < b.Radius || b.Position.Y > float64(cfg.Height)-b.Radius {
			t.Errorf("solid escaped the domain: %+v", b.Position)
		}
	}
}

func TestHeadlessOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := newTestGame(t, Options{OutputDir: dir})
	runTicks(t, g, 14)
	g.Unload()

	for _, name := range []string{"telemetry.csv", "perf.csv", "solids.csv", "fields.csv", "config.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestPausedGameDoesNotAdvanceFluid(t *testing.T) {
	g := newTestGame(t, Options{})
	g.togglePause()
	before := g.Sim().Solids[0].Position
	runTicks(t, g, 5)
	if g.Sim().Solids[0].Position != before {
		t.Error("solid moved while paused")
	}
	if g.emitters.Count() != 2 {
		t.Error("emitters aged while paused")
	}
}

func TestResizeFollowsScreen(t *testing.T) {
	g := newTestGame(t, Options{})
	runTicks(t, g, 1)
	before := g.Sim().Solids[0].Position

	g.resizeScreen(128, 48)
	runTicks(t, g, 1)

	cfg := g.Sim().Config()
	if cfg.Width != 128 || cfg.Height != 48 {
		t.Fatalf("domain = %dx%d, want 128x48", cfg.Width, cfg.Height)
	}
	after := g.Sim().Solids[0].Position
	if after.X < before.X*1.5 {
		t.Errorf("solid x %v not rescaled from %v", after.X, before.X)
	}
	if g.emitters.Bounds.Width != 128 {
		t.Errorf("emitter bounds = %v, want 128", g.emitters.Bounds.Width)
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	g := newTestGame(t, Options{SnapshotDir: dir})
	runTicks(t, g, 3)
	g.Sim().Solids[0].Position.X = 20
	g.saveSnapshot()

	path := filepath.Join(dir, "snapshot_3.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	restored := newTestGame(t, Options{RestorePath: path})
	if got := restored.Sim().Solids[0].Position.X; got != 20 {
		t.Errorf("restored solid x = %v, want 20", got)
	}
}

func TestResetRespawnsSolids(t *testing.T) {
	g := newTestGame(t, Options{})
	g.Sim().Solids[0].Position.X = 10
	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if x := g.Sim().Solids[0].Position.X; x != 32 {
		t.Errorf("solid x = %v after reset, want 32", x)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	x, y := screenToDomain(110, 20, 100, 10, 5)
	if x != 100 || y != 75 {
		t.Errorf("screenToDomain = (%v, %v), want (100, 75)", x, y)
	}
	sx, sy := domainToScreen(x, y, 100, 10, 5)
	if sx != 110 || sy != 20 {
		t.Errorf("domainToScreen = (%v, %v), want (110, 20)", sx, sy)
	}
}

func TestBurstRecordsPointerSplats(t *testing.T) {
	g := newTestGame(t, Options{Seed: 11})
	var total int
	g.SetStatsCallback(func(s telemetry.WindowStats) { total += s.PointerSplats })

	g.Burst(3)
	runTicks(t, g, 10)
	if total != 3 {
		t.Errorf("pointer splats = %d, want 3", total)
	}
	if g.bursts != 0 {
		t.Errorf("%d bursts still queued", g.bursts)
	}
}
