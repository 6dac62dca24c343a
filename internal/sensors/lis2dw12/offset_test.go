package lis2dw12

import (
	"errors"
	"testing"

	"accelwake/internal/fix16"
)

func feedLocked(d *Driver, v fix16.Vector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.feedOffset(v)
}

func TestOffsetSteps(t *testing.T) {
	steps, ok := offsetSteps(fix16.Vector{X: fix16.FromFloat(-0.5), Z: fix16.One})
	if !ok {
		t.Fatalf("expected ok")
	}
	// 1 g / 15.6 mg = 64.1, 0.5 g / 15.6 mg = 32.05
	if steps != [3]int8{-32, 0, 64} {
		t.Fatalf("steps=%v want [-32 0 64]", steps)
	}

	if _, ok := offsetSteps(fix16.Vector{Y: fix16.FromFloat(1.1)}); ok {
		t.Fatalf("expected 1.1 g to be out of range")
	}
}

func TestFeedOffset_WritesOnlyChangedAxes(t *testing.T) {
	h := newHarness(t)
	h.open(t, h.config())
	h.bus.resetLog()

	feedLocked(h.d, fix16.Vector{Z: fix16.One})
	if got := h.bus.writesTo(regZOfsUsr); len(got) != 1 || got[0] != 64 {
		t.Fatalf("Z writes=%v want [64]", got)
	}
	if n := len(h.bus.writes); n != 1 {
		t.Fatalf("writes=%d want=1", n)
	}

	// Three steps further on Z only.
	h.bus.resetLog()
	z := fix16.Add(fix16.One, fix16.Mul(fix16.FromInt(3), offsetStep))
	feedLocked(h.d, fix16.Vector{Z: z})
	if got := h.bus.writesTo(regZOfsUsr); len(got) != 1 || got[0] != 67 {
		t.Fatalf("Z writes=%v want [67]", got)
	}
	if n := len(h.bus.writes); n != 1 {
		t.Fatalf("writes=%d want=1", n)
	}

	// Same vector again is a no-op.
	h.bus.resetLog()
	feedLocked(h.d, fix16.Vector{Z: z})
	if n := len(h.bus.writes); n != 0 {
		t.Fatalf("writes=%d want=0", n)
	}
}

func TestFeedOffset_NegativeStepEncoding(t *testing.T) {
	h := newHarness(t)
	h.open(t, h.config())
	h.bus.resetLog()

	feedLocked(h.d, fix16.Vector{X: -fix16.One})
	if got := h.bus.writesTo(regXOfsUsr); len(got) != 1 || got[0] != 0xC0 {
		t.Fatalf("X writes=%v want [0xC0]", got)
	}
}

func TestFeedOffset_SkipsBeyondGravity(t *testing.T) {
	h := newHarness(t)
	h.open(t, h.config())
	h.bus.resetLog()

	feedLocked(h.d, fix16.Vector{X: fix16.FromFloat(0.2), Z: fix16.FromFloat(1.2)})
	if n := len(h.bus.writes); n != 0 {
		t.Fatalf("writes=%d want=0", n)
	}
}

func TestFeedOffset_FailedWriteKeepsCache(t *testing.T) {
	h := newHarness(t)
	h.open(t, h.config())
	h.bus.writeErrFor[regZOfsUsr] = errors.New("nak")

	feedLocked(h.d, fix16.Vector{Z: fix16.One})
	if h.d.offset[2] != 0 {
		t.Fatalf("cached z=%d want=0", h.d.offset[2])
	}

	delete(h.bus.writeErrFor, regZOfsUsr)
	h.bus.resetLog()
	feedLocked(h.d, fix16.Vector{Z: fix16.One})
	if got := h.bus.writesTo(regZOfsUsr); len(got) != 1 || got[0] != 64 {
		t.Fatalf("Z writes=%v want retry [64]", got)
	}
}
