package gpiodmx

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTickPeriod matches the AVR timer-2 overflow rate at 16 MHz
// (about 490 Hz).
const DefaultTickPeriod = 2040 * time.Microsecond

// Ticker calls a handler once per period from a dedicated goroutine locked
// to its OS thread. It stands in for a hardware timer interrupt: Enable and
// Disable gate the handler the way an interrupt-enable bit would.
//
// Ticks missed while the handler runs long are dropped, never queued.
type Ticker struct {
	period   time.Duration
	handler  func()
	realtime *Realtime

	enabled atomic.Bool
	// busy is held while the enable bit is checked and the handler runs.
	busy sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker returns a stopped, disabled ticker. rt may be nil.
func NewTicker(period time.Duration, rt *Realtime, handler func()) *Ticker {
	return &Ticker{period: period, handler: handler, realtime: rt}
}

// Period returns the tick period.
func (t *Ticker) Period() time.Duration {
	return t.period
}

func (t *Ticker) Enable() {
	t.enabled.Store(true)
}

func (t *Ticker) Disable() {
	t.enabled.Store(false)
}

// Enabled reports whether the handler runs on the next tick.
func (t *Ticker) Enabled() bool {
	return t.enabled.Load()
}

// Wait blocks until a handler call in progress has returned. After Disable
// and Wait, the handler does not run again until Enable.
func (t *Ticker) Wait() {
	t.busy.Lock()
	defer t.busy.Unlock()
}

// Run starts the tick goroutine if it is not already running.
func (t *Ticker) Run() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
}

// Close stops the tick goroutine and waits for the current handler to
// return.
func (t *Ticker) Close() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if t.realtime != nil {
		if err := t.realtime.Apply(); err != nil {
			log.Printf("realtime setup failed, ticking without it: %v", err)
		}
	}

	timer := time.NewTimer(t.period)
	defer timer.Stop()
	next := time.Now().Add(t.period)
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		t.busy.Lock()
		if t.enabled.Load() {
			t.handler()
		}
		t.busy.Unlock()

		next = next.Add(t.period)
		now := time.Now()
		if next.Before(now) {
			next = now.Add(t.period)
		}
		timer.Reset(next.Sub(now))
	}
}
