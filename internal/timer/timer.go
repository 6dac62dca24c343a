// Package timer provides rearmable one-shot timers on a clock.Clock.
package timer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"accelwake/internal/accel"
)

// Service creates timers. It implements accel.TimerService.
type Service struct {
	clk clock.Clock
}

var _ accel.TimerService = (*Service)(nil)

// New returns a Service on clk, or on the wall clock when clk is nil.
func New(clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{clk: clk}
}

// NewTimer returns a stopped timer that calls fn on its own goroutine when
// it expires.
func (s *Service) NewTimer(fn func()) accel.Timer {
	return &Timer{clk: s.clk, fn: fn}
}

// Timer is a one-shot timer. Each ChangePeriod or Stop starts a new
// generation; expiries of an older generation are dropped, so a fire racing
// with a rearm never runs fn twice.
type Timer struct {
	clk clock.Clock
	fn  func()

	mu  sync.Mutex
	t   *clock.Timer
	gen uint64
}

func (t *Timer) ChangePeriod(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	gen := t.gen
	t.t = t.clk.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// armed reports whether the timer is waiting to fire.
func (t *Timer) armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t != nil
}

func (t *Timer) stopLocked() {
	t.gen++
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.t = nil
	t.mu.Unlock()
	t.fn()
}
