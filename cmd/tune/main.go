// Package main searches pressure solver settings with CMA-ES, trading the
// divergence left after projection against the cost of extra iterations.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/plume/config"
)

// logRecord is one row of tune_log.csv.
type logRecord struct {
	Eval        int     `csv:"eval"`
	Objective   float64 `csv:"objective"`
	Residual    float64 `csv:"residual"`
	StepMillis  float64 `csv:"step_ms"`
	Iterations  int     `csv:"pressure_iterations"`
	Dissipation float64 `csv:"pressure_dissipation"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 240, "Steps per run")
	seeds := flag.Int("seeds", 2, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	iterCost := flag.Float64("iter-cost", 0.01, "Objective cost per pressure iteration")
	width := flag.Int("width", 160, "Domain width for tuning runs")
	height := flag.Int("height", 90, "Domain height for tuning runs")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Tuning runs are small and fixed-size regardless of the window.
	baseCfg.Screen.Width, baseCfg.Screen.Height = *width, *height
	baseCfg.Derived.DomainW, baseCfg.Derived.DomainH = *width, *height

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewEvaluator(baseCfg, params, *ticks, evalSeeds, *iterCost)

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestObjective := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			objective, res, err := evaluator.Evaluate(raw)
			evalCount++
			if err != nil {
				log.Printf("eval %d failed: %v", evalCount, err)
				return objective
			}

			clamped := params.Clamp(raw)
			if objective < bestObjective {
				bestObjective = objective
				bestParams = clamped
			}

			rec := []logRecord{{
				Eval:        evalCount,
				Objective:   objective,
				Residual:    res.Residual,
				StepMillis:  float64(res.StepTime) / float64(time.Millisecond),
				Iterations:  res.Iterations,
				Dissipation: res.Dissipation,
			}}
			if evalCount == 1 {
				err = gocsv.Marshal(rec, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if err != nil {
				log.Printf("failed to log eval %d: %v", evalCount, err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: iters=%d dissipation=%.3f residual=%.5f (best=%.5f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, res.Iterations, res.Dissipation, res.Residual, bestObjective,
				formatDuration(elapsed), formatDuration(remaining))
			return objective
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES tuning with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, steps per run: %d, domain %dx%d\n", *seeds, *ticks, *width, *height)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no successful evaluation")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best objective: %.5f\n", bestObjective)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.4f\n", spec.Name, spec.Path, bestParams[i])
	}

	// The written config keeps the user's screen and domain size.
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
