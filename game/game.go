// Package game wires a fluid simulation to a raylib window or a headless
// software engine, with emitters, pointer splats, solids and telemetry.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/gpu"
	"github.com/pthm-cable/plume/gpu/rlgpu"
	"github.com/pthm-cable/plume/gpu/software"
	"github.com/pthm-cable/plume/systems"
	"github.com/pthm-cable/plume/telemetry"
	"github.com/pthm-cable/plume/ui"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Headless    bool
	LogStats    bool
	OutputDir   string // CSV logs and config snapshot (empty = disabled)
	SnapshotDir string // Scene snapshots (empty = disabled)
	RestorePath string // Scene snapshot to load at startup
	Seed        int64
}

// Game owns the engine, the simulation and the demo systems around it.
type Game struct {
	cfg  *config.Config
	opts Options

	eng  gpu.Engine
	soft *software.Engine // set when the software backend is active
	sim  *fluid.Simulation

	world    *ecs.World
	emitters *systems.EmitterSystem
	pointer  *systems.Pointer
	drag     drag
	bursts   int
	rng      *rand.Rand

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// Graphics mode only
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	panel     *ui.ControlPanel
	screenTex rl.Texture2D
	pixels    []rl.Color

	showPerf bool

	tick          int32
	simTime       float64
	clock         time.Time
	hookErr       error
	statsCallback func(telemetry.WindowStats)
}

// NewGameWithOptions builds a game from the global config. Graphics mode
// requires an open raylib window.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	g := &Game{
		cfg:  cfg,
		opts: opts,
		pointer: &systems.Pointer{
			Radius:       cfg.Pointer.Radius,
			Force:        cfg.Pointer.Force,
			DyeIntensity: cfg.Pointer.DyeIntensity,
			HueSpeed:     cfg.Pointer.HueSpeed,
		},
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		clock:     time.Unix(0, 0),
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
	g.pointer.Randomize(g.rng)

	if err := g.initEngine(); err != nil {
		return nil, err
	}

	fc := cfg.Fluid()
	sim, err := fluid.New(g.eng, &fc)
	if err != nil {
		g.eng.Close()
		return nil, fmt.Errorf("creating simulation: %w", err)
	}
	g.sim = sim
	sim.Solids = cfg.NewSolids()
	sim.Profiler = g.perf
	sim.PreRender = g.preRender
	sim.PostRender = g.postRender

	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			g.Unload()
			return nil, err
		}
		sim.Solids = snap.Restore(fc.Width, fc.Height)
		slog.Info("restored snapshot", "path", opts.RestorePath, "solids", len(sim.Solids))
	}

	g.world = ecs.NewWorld()
	g.emitters = systems.NewEmitterSystem(g.world)
	g.emitters.Bounds = systems.Bounds{Width: float64(fc.Width), Height: float64(fc.Height)}
	g.emitters.SpawnFromConfig(cfg.Emitters, cfg.Pointer.HueSpeed, 1)

	g.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if !opts.Headless {
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(10, 100)
		g.panel = ui.NewControlPanel(int32(cfg.Screen.Width)-270, 10, 260)
	}

	slog.Info("game initialized",
		"backend", g.backend(),
		"domain_width", fc.Width,
		"domain_height", fc.Height,
		"solids", len(sim.Solids),
		"emitters", g.emitters.Count(),
	)
	return g, nil
}

// initEngine picks the software engine for headless runs or when
// configured, and the raylib engine otherwise.
func (g *Game) initEngine() error {
	w, h := g.cfg.Screen.Width, g.cfg.Screen.Height
	if g.opts.Headless || g.cfg.Engine.Backend == config.BackendSoftware {
		g.soft = software.New(w, h)
		g.eng = g.soft
		if !g.opts.Headless {
			img := rl.GenImageColor(w, h, rl.Black)
			g.screenTex = rl.LoadTextureFromImage(img)
			rl.UnloadImage(img)
			g.pixels = make([]rl.Color, w*h)
		}
		return nil
	}
	g.eng = rlgpu.New()
	return nil
}

func (g *Game) backend() string {
	if g.soft != nil {
		return config.BackendSoftware
	}
	return config.BackendRaylib
}

// Sim returns the simulation.
func (g *Game) Sim() *fluid.Simulation { return g.sim }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 { return g.tick }

// SoftwareEngine returns the software engine, or nil on the GPU backend.
func (g *Game) SoftwareEngine() *software.Engine { return g.soft }

// step runs one simulation tick at now with profiling and telemetry.
func (g *Game) step(now time.Time) error {
	g.hookErr = nil
	g.perf.StartTick()
	err := g.sim.Tick(now)
	g.perf.EndTick()
	if err == nil {
		err = g.hookErr
	}
	if err != nil {
		return err
	}
	g.tick++
	g.flushTelemetry()
	return nil
}

// UpdateHeadless advances one tick on a synthetic clock at the configured
// frame rate.
func (g *Game) UpdateHeadless() error {
	fps := g.cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	g.clock = g.clock.Add(time.Second / time.Duration(fps))
	return g.step(g.clock)
}

// preRender runs after the step and before the field is drawn.
func (g *Game) preRender(dt float64) {
	g.perf.StartPhase(telemetry.PhaseHooks)
	if !g.sim.Running() {
		return
	}
	g.collector.Advance(dt)
	g.simTime += dt

	n := systems.Bounds{
		Width:  float64(g.sim.Config().Width),
		Height: float64(g.sim.Config().Height),
	}.Confine(g.sim.Solids, g.cfg.Bounds.Restitution)
	g.collector.RecordWallContacts(n)

	splats, err := g.emitters.Update(g.sim, dt)
	for range splats {
		g.collector.RecordEmitterSplat()
	}
	if err != nil {
		g.hookErr = errors.Join(g.hookErr, err)
		return
	}

	if g.bursts > 0 {
		cfg := g.sim.Config()
		err := systems.Burst(g.sim, g.rng, g.bursts, float64(cfg.Width), float64(cfg.Height),
			2*g.pointer.Radius, burstSpeed, g.pointer.DyeIntensity)
		if err != nil {
			g.hookErr = errors.Join(g.hookErr, err)
		}
		for i := 0; i < g.bursts; i++ {
			g.collector.RecordPointerSplat()
		}
		g.bursts = 0
	}

	g.pointer.Advance(dt)
	if g.drag.active {
		ok, err := g.pointer.Drag(g.sim, g.drag.x, g.drag.y, g.drag.dx, g.drag.dy, dt)
		if err != nil {
			g.hookErr = errors.Join(g.hookErr, err)
		} else if ok {
			g.collector.RecordPointerSplat()
		}
		g.drag = drag{}
	}
}

// burstSpeed is the top speed of a burst blob in domain pixels per second.
const burstSpeed = 1000

// Burst queues n random splats for the next tick.
func (g *Game) Burst(n int) {
	g.bursts += n
}

// postRender copies the software screen into the window texture.
func (g *Game) postRender(float64) {
	g.perf.StartPhase(telemetry.PhaseHooks)
	if g.soft == nil || g.pixels == nil {
		return
	}
	img := g.soft.ScreenImage()
	if len(img.Pix) != len(g.pixels)*4 {
		return
	}
	for i := range g.pixels {
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		g.pixels[i] = rl.Color{R: p[0], G: p[1], B: p[2], A: 255}
	}
	rl.UpdateTexture(g.screenTex, g.pixels)
}

// Reset clears every field and respawns the configured solids.
func (g *Game) Reset() error {
	if err := g.sim.Reset(); err != nil {
		return err
	}
	g.sim.Solids = g.cfg.NewSolids()
	slog.Info("simulation reset", "tick", g.tick)
	return nil
}

// Unload releases the simulation, engine and output files.
func (g *Game) Unload() {
	if g.output != nil {
		if err := g.output.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
	if g.sim != nil {
		g.sim.Close()
	}
	if g.pixels != nil {
		rl.UnloadTexture(g.screenTex)
	}
	if g.eng != nil {
		g.eng.Close()
	}
}
