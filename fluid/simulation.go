package fluid

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/plume/gpu"
)

// tickSmoothing is the weight of the newest sample in TickDuration.
const tickSmoothing = 0.1

// Simulation owns the field buffers and runs the pass pipeline. It is not
// safe for concurrent use; the caller must not mutate Solids during a tick.
type Simulation struct {
	// Solids are the bodies coupled to the fluid. The caller owns the slice;
	// Step only writes Position and Velocity.
	Solids []*Solid

	// PreRender and PostRender run around Render on every Tick with the
	// clamped time step.
	PreRender  func(dt float64)
	PostRender func(dt float64)

	// Profiler, when set, receives each pass name as it starts.
	Profiler Profiler

	cfg   *Config
	eng   gpu.Engine
	progs programs

	velocity   *DoubleField
	dye        *DoubleField
	pressure   *DoubleField
	divergence *Field
	curl       *Field
	size       sizeKey

	running      bool
	lastTick     time.Time
	tickDuration time.Duration
}

// New compiles every pass on eng and allocates fields for cfg. The
// simulation keeps cfg and reads it on every tick.
func New(eng gpu.Engine, cfg *Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	progs, err := compilePrograms(eng)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:     cfg,
		eng:     eng,
		progs:   progs,
		running: true,
	}
	if err := s.allocate(); err != nil {
		progs.release()
		return nil, err
	}

	simW, simH := cfg.SimSize()
	dyeW, dyeH := cfg.DyeSize()
	slog.Info("fluid simulation created",
		"width", cfg.Width, "height", cfg.Height,
		"sim_width", simW, "sim_height", simH,
		"dye_width", dyeW, "dye_height", dyeH,
	)
	return s, nil
}

// Config returns the live configuration.
func (s *Simulation) Config() *Config { return s.cfg }

// Engine returns the engine the simulation runs on.
func (s *Simulation) Engine() gpu.Engine { return s.eng }

func (s *Simulation) Pause()        { s.running = false }
func (s *Simulation) Resume()       { s.running = true }
func (s *Simulation) Running() bool { return s.running }

// TickDuration is the exponentially smoothed wall-clock cost of Tick.
func (s *Simulation) TickDuration() time.Duration { return s.tickDuration }

// allocate creates every field at the configured size with cleared contents.
func (s *Simulation) allocate() error {
	cfg := s.cfg
	simW, simH := cfg.SimSize()
	dyeW, dyeH := cfg.DyeSize()

	velocity, err := createDoubleField(s.eng, gpu.TargetSpec{
		Width: simW, Height: simH, Layout: gpu.RG, Precision: cfg.Precision, Filter: gpu.FilterLinear,
	})
	if err != nil {
		return err
	}
	dye, err := createDoubleField(s.eng, gpu.TargetSpec{
		Width: dyeW, Height: dyeH, Layout: gpu.RGBA, Precision: cfg.Precision, Filter: gpu.FilterLinear,
	})
	if err != nil {
		velocity.release()
		return err
	}

	scalar := gpu.TargetSpec{Width: simW, Height: simH, Layout: gpu.R, Precision: cfg.Precision, Filter: gpu.FilterNearest}
	pressure, err := createDoubleField(s.eng, scalar)
	if err != nil {
		velocity.release()
		dye.release()
		return err
	}
	divergence, err := createField(s.eng, scalar)
	if err != nil {
		velocity.release()
		dye.release()
		pressure.release()
		return err
	}
	curl, err := createField(s.eng, scalar)
	if err != nil {
		velocity.release()
		dye.release()
		pressure.release()
		divergence.release()
		return err
	}

	s.releaseFields()
	s.velocity, s.dye, s.pressure = velocity, dye, pressure
	s.divergence, s.curl = divergence, curl
	s.size = cfg.sizeKey()
	return nil
}

func (s *Simulation) releaseFields() {
	s.velocity.release()
	s.dye.release()
	s.pressure.release()
	s.divergence.release()
	s.curl.release()
}

// Reset reallocates every field without preserving content. A pending
// size change is applied first, so solids are rescaled as on a resize.
func (s *Simulation) Reset() error {
	if err := s.ApplyConfig(); err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if err := s.allocate(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	slog.Debug("fluid simulation reset")
	return nil
}

// Close releases every field and program.
func (s *Simulation) Close() {
	s.releaseFields()
	s.progs.release()
}

// ApplyConfig resizes the fields if the domain size, either scale or the
// precision changed since the last call. Field contents are resampled and
// every solid's position and velocity are scaled by the domain size ratio.
// Tick calls it; manual drivers using Step call it themselves.
func (s *Simulation) ApplyConfig() error {
	key := s.cfg.sizeKey()
	if key == s.size {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.phase(PhaseResize)

	old := s.size
	simW, simH := s.cfg.SimSize()
	dyeW, dyeH := s.cfg.DyeSize()
	cp := s.progs[progCopy]
	identity := gpu.Vec4{1, 1, 1, 1}

	velScale := gpu.Vec4{
		float32(simW) / float32(s.velocity.Width()),
		float32(simH) / float32(s.velocity.Height()),
		1, 1,
	}
	prec := s.cfg.Precision
	if err := s.velocity.resize(s.eng, simW, simH, prec, cp, velScale); err != nil {
		return err
	}
	if err := s.dye.resize(s.eng, dyeW, dyeH, prec, cp, identity); err != nil {
		return err
	}
	if err := s.pressure.resize(s.eng, simW, simH, prec, cp, identity); err != nil {
		return err
	}
	if err := s.divergence.resize(s.eng, simW, simH, prec, cp, identity); err != nil {
		return err
	}
	if err := s.curl.resize(s.eng, simW, simH, prec, cp, identity); err != nil {
		return err
	}

	rx := float64(key.width) / float64(old.width)
	ry := float64(key.height) / float64(old.height)
	for _, b := range s.Solids {
		b.Position.X *= rx
		b.Position.Y *= ry
		b.Velocity.X *= rx
		b.Velocity.Y *= ry
	}

	s.size = key
	slog.Info("fluid simulation resized",
		"width", key.width, "height", key.height,
		"sim_width", simW, "sim_height", simH,
		"dye_width", dyeW, "dye_height", dyeH,
	)
	return nil
}

// Tick advances one frame: it measures the time since the previous tick,
// applies configuration changes, steps if running and renders.
func (s *Simulation) Tick(now time.Time) error {
	start := time.Now()

	var dt float64
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
	dt = s.clampStep(dt)

	if err := s.ApplyConfig(); err != nil {
		return err
	}
	if s.running {
		if err := s.Step(dt); err != nil {
			return err
		}
	}

	if s.PreRender != nil {
		s.PreRender(dt)
	}
	if err := s.Render(); err != nil {
		return err
	}
	if s.PostRender != nil {
		s.PostRender(dt)
	}

	elapsed := time.Since(start)
	if s.tickDuration == 0 {
		s.tickDuration = elapsed
	} else {
		s.tickDuration += time.Duration(tickSmoothing * float64(elapsed-s.tickDuration))
	}
	return nil
}

// clampStep bounds dt to [0, MaxSimulationStep].
func (s *Simulation) clampStep(dt float64) float64 {
	if dt < 0 || math.IsNaN(dt) {
		return 0
	}
	if limit := s.cfg.MaxSimulationStep; limit > 0 && dt > limit {
		return limit
	}
	return dt
}

func (s *Simulation) phase(name string) {
	if s.Profiler != nil {
		s.Profiler.StartPhase(name)
	}
}

// run binds params on the named program and blits it over the whole of dst.
func (s *Simulation) run(name string, params gpu.Params, dst gpu.Target) error {
	return s.runIn(name, params, dst, gpu.Viewport{})
}

func (s *Simulation) runIn(name string, params gpu.Params, dst gpu.Target, vp gpu.Viewport) error {
	p := s.progs[name]
	if err := p.Use(params); err != nil {
		return fmt.Errorf("%s pass: %w", name, err)
	}
	if err := p.Blit(dst, vp); err != nil {
		return fmt.Errorf("%s pass: %w", name, err)
	}
	return nil
}

func tex(t gpu.Target) gpu.Texture { return gpu.Texture{Target: t} }

// Field returns the readable target of k.
func (s *Simulation) Field(k FieldKind) (gpu.Target, error) {
	switch k {
	case FieldDye:
		return s.dye.Read(), nil
	case FieldVelocity:
		return s.velocity.Read(), nil
	case FieldPressure:
		return s.pressure.Read(), nil
	case FieldDivergence:
		return s.divergence.Target(), nil
	case FieldCurl:
		return s.curl.Target(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRenderSource, k)
}
