// Package loop drives a simulation from a timer when the host has no frame
// loop of its own.
package loop

import (
	"context"
	"log/slog"
	"time"
)

// Ticker is advanced once per interval. *fluid.Simulation satisfies it.
type Ticker interface {
	Tick(now time.Time) error
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(now time.Time) error

// Tick calls f(now).
func (f TickerFunc) Tick(now time.Time) error { return f(now) }

// DefaultInterval is one frame at 60 Hz.
const DefaultInterval = time.Second / 60

// Run ticks t every interval until ctx is done or a tick fails. It returns
// ctx.Err() on cancellation and the tick error otherwise.
func Run(ctx context.Context, t Ticker, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()

	slog.Debug("loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case now := <-tk.C:
			if err := t.Tick(now); err != nil {
				return err
			}
		}
	}
}

// RunN ticks t n times back to back with a synthetic clock advancing by
// step. Headless runs use it so results do not depend on wall time.
func RunN(ctx context.Context, t Ticker, n int, start time.Time, step time.Duration) error {
	now := start
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Tick(now); err != nil {
			return err
		}
		now = now.Add(step)
	}
	return nil
}
