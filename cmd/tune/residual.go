package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/gpu"
	"github.com/pthm-cable/plume/gpu/software"
	"github.com/pthm-cable/plume/systems"
)

// stirEvery is the number of steps between random bursts.
const stirEvery = 10

// runResult summarises one stirred run.
type runResult struct {
	Residual    float64       // mean |div v| after the final step
	StepTime    time.Duration // mean wall time per step
	Iterations  int
	Dissipation float64
}

// Evaluator runs stirred software simulations with candidate solver
// settings.
type Evaluator struct {
	base   *config.Config
	params *ParamVector
	ticks  int
	seeds  []int64
	// Cost added per pressure iteration, in residual units.
	iterCost float64
}

// NewEvaluator creates an evaluator over the given base config.
func NewEvaluator(base *config.Config, params *ParamVector, ticks int, seeds []int64, iterCost float64) *Evaluator {
	return &Evaluator{base: base, params: params, ticks: ticks, seeds: seeds, iterCost: iterCost}
}

// Evaluate returns the objective for raw parameter values (lower = better)
// and the per-seed mean run result.
func (e *Evaluator) Evaluate(x []float64) (float64, runResult, error) {
	cfg := *e.base
	e.params.ApplyToConfig(&cfg, x)

	var mean runResult
	for _, seed := range e.seeds {
		r, err := run(&cfg, e.ticks, seed)
		if err != nil {
			return math.Inf(1), runResult{}, err
		}
		mean.Residual += r.Residual
		mean.StepTime += r.StepTime
	}
	n := float64(len(e.seeds))
	mean.Residual /= n
	mean.StepTime /= time.Duration(len(e.seeds))
	mean.Iterations = cfg.Simulation.PressureIterations
	mean.Dissipation = cfg.Simulation.PressureDissipation

	return mean.Residual + e.iterCost*float64(mean.Iterations), mean, nil
}

// run stirs a fresh simulation for ticks steps and measures the
// divergence left in the velocity field.
func run(cfg *config.Config, ticks int, seed int64) (runResult, error) {
	fc := cfg.Fluid()
	eng := software.New(cfg.Screen.Width, cfg.Screen.Height)
	sim, err := fluid.New(eng, &fc)
	if err != nil {
		eng.Close()
		return runResult{}, err
	}
	defer func() {
		sim.Close()
		eng.Close()
	}()
	sim.Solids = cfg.NewSolids()

	rng := rand.New(rand.NewSource(seed))
	w, h := float64(fc.Width), float64(fc.Height)
	radius := 0.1 * math.Min(w, h)

	dt := fc.MaxSimulationStep
	start := time.Now()
	for i := 0; i < ticks; i++ {
		if i%stirEvery == 0 {
			if err := systems.Burst(sim, rng, 3, w, h, radius, 0.5*w, 0.5); err != nil {
				return runResult{}, err
			}
		}
		if err := sim.Step(dt); err != nil {
			return runResult{}, fmt.Errorf("step %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	res, err := VelocityResidual(sim)
	if err != nil {
		return runResult{}, err
	}
	out := runResult{Residual: res}
	if ticks > 0 {
		out.StepTime = elapsed / time.Duration(ticks)
	}
	return out, nil
}

// VelocityResidual reads the velocity field back and returns the mean
// absolute central-difference divergence over interior cells.
func VelocityResidual(sim *fluid.Simulation) (float64, error) {
	t, err := sim.Field(fluid.FieldVelocity)
	if err != nil {
		return 0, err
	}
	w, h := t.Width(), t.Height()
	rawX, err := sim.Engine().ReadHalf(t, 0, 0, 0, w, h)
	if err != nil {
		return 0, err
	}
	rawY, err := sim.Engine().ReadHalf(t, 1, 0, 0, w, h)
	if err != nil {
		return 0, err
	}
	return meanAbsDivergence(gpu.DecodeHalfFloats(rawX), gpu.DecodeHalfFloats(rawY), w, h), nil
}

// meanAbsDivergence works on row-major w×h grids with row 0 at the bottom.
func meanAbsDivergence(vx, vy []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			d := 0.5 * (vx[i+1] - vx[i-1] + vy[i+w] - vy[i-w])
			sum += math.Abs(d)
		}
	}
	return sum / float64((w-2)*(h-2))
}
