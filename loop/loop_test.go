package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countTicker struct {
	n     int
	times []time.Time
	fail  int
	stop  func()
}

func (c *countTicker) Tick(now time.Time) error {
	c.n++
	c.times = append(c.times, now)
	if c.fail > 0 && c.n == c.fail {
		return errTick
	}
	if c.stop != nil && c.n == 3 {
		c.stop()
	}
	return nil
}

var errTick = errors.New("tick failed")

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &countTicker{stop: cancel}
	err := Run(ctx, c, time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if c.n < 3 {
		t.Errorf("ticked %d times before cancel, want at least 3", c.n)
	}
}

func TestRunReturnsTickError(t *testing.T) {
	c := &countTicker{fail: 2}
	err := Run(context.Background(), c, time.Millisecond)
	if !errors.Is(err, errTick) {
		t.Fatalf("Run returned %v, want tick error", err)
	}
	if c.n != 2 {
		t.Errorf("ticked %d times, want 2", c.n)
	}
}

func TestRunNUsesSyntheticClock(t *testing.T) {
	c := &countTicker{}
	start := time.Unix(100, 0)
	if err := RunN(context.Background(), c, 4, start, 10*time.Millisecond); err != nil {
		t.Fatalf("RunN: %v", err)
	}
	if c.n != 4 {
		t.Fatalf("ticked %d times, want 4", c.n)
	}
	if got := c.times[3].Sub(start); got != 30*time.Millisecond {
		t.Errorf("last tick at +%v, want +30ms", got)
	}
}

func TestRunNHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &countTicker{}
	if err := RunN(ctx, c, 5, time.Now(), time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Errorf("RunN returned %v, want context.Canceled", err)
	}
	if c.n != 0 {
		t.Errorf("ticked %d times after cancel", c.n)
	}
}

func TestTickerFunc(t *testing.T) {
	var calls int
	f := TickerFunc(func(time.Time) error {
		calls++
		return nil
	})
	if err := RunN(context.Background(), f, 4, time.Unix(0, 0), time.Second); err != nil {
		t.Fatalf("RunN: %v", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}
