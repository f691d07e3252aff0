package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/game"
	"github.com/pthm-cable/plume/loop"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run on the software engine without a window")
	realtime := flag.Bool("realtime", false, "Pace headless ticks to the target FPS")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for scene snapshots")
	restore := flag.String("restore", "", "Scene snapshot to restore at startup")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Headless:    *headless,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		RestorePath: *restore,
		Seed:        rngSeed,
	}

	if *headless {
		if err := runHeadless(opts, cfg.Screen.TargetFPS, *maxTicks, *realtime); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Plume")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		if err := g.Frame(); err != nil {
			slog.Error("frame failed", "tick", g.Tick(), "error", err)
			return
		}
		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless ticks the software engine until maxTicks or an interrupt.
func runHeadless(opts game.Options, fps, maxTicks int, realtime bool) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interval := loop.DefaultInterval
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	tick := loop.TickerFunc(func(time.Time) error {
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			stop()
		}
		return nil
	})

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"realtime", realtime,
	)

	if realtime {
		err = loop.Run(ctx, tick, interval)
	} else {
		n := maxTicks
		if n <= 0 {
			n = math.MaxInt
		}
		err = loop.RunN(ctx, tick, n, time.Now(), interval)
	}
	slog.Info("headless simulation stopped", "tick", g.Tick())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
