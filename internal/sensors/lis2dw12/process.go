package lis2dw12

import (
	"errors"

	"go.uber.org/zap"

	"accelwake/internal/accel"
)

// post queues ev for the worker. It never blocks: the device latches its
// interrupt sources, so a dropped event is recovered by the next one.
func (d *Driver) post(ev event) {
	select {
	case d.events <- ev:
	default:
		d.log.Debug("event queue full, dropping", zap.Stringer("event", ev))
	}
}

func (d *Driver) drainEvents() {
	for {
		select {
		case <-d.events:
		default:
			return
		}
	}
}

func (d *Driver) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-d.events:
			d.handle(stop, ev)
		}
	}
}

// handle processes one event and delivers the resulting notification, if
// any, after releasing the lock.
func (d *Driver) handle(stop <-chan struct{}, ev event) {
	d.mu.Lock()
	if !d.isOpen || d.stop != stop {
		d.mu.Unlock()
		return
	}
	n, ok := d.process(ev)
	cb := d.cb
	d.mu.Unlock()

	if !ok || cb == nil {
		return
	}
	select {
	case <-stop:
		// Closed while the cycle ran.
		return
	default:
	}
	cb(n)
}

// process runs one cycle of the state machine. ok reports whether n should
// be delivered. Must be called with d.mu held.
func (d *Driver) process(ev event) (n accel.Notification, ok bool) {
	if ev == eventTimeout {
		d.opening = false
	}

	// Reading ALL_INT_SRC acknowledges every latched interrupt.
	src, err := d.readReg(regAllIntSrc)
	if err != nil {
		return d.failure(ev, err)
	}
	if d.opening {
		return n, false
	}

	if d.shockPending {
		// A poll expiry queued before the tap was accepted is not the
		// burst deadline.
		if ev != eventTimeout || d.clk.Now().Before(d.shockDue) {
			d.log.Debug("shock read pending, postponing", zap.Stringer("event", ev))
			return n, false
		}
		return d.finishShock()
	}

	status, err := d.readReg(regStatus)
	if err != nil {
		return d.failure(ev, err)
	}

	n.Type = accel.NotifyWake
	if src&intSrcWakeUp == 0 && status&statusSleepState != 0 {
		n.Type = accel.NotifySleep
	}

	if src&intSrcSingleTap != 0 {
		now := d.clk.Now()
		if !d.shockSeen || now.Sub(d.lastShock) > shockDebounce {
			d.shockSeen = true
			d.lastShock = now
			d.shockPending = true
			d.shockDue = now.Add(shockDelay(d.odr))
			d.timer.ChangePeriod(shockDelay(d.odr))
			d.log.Debug("shock detected, scheduling burst read")
		} else {
			d.log.Debug("shock debounced")
		}
		n.Type = accel.NotifyWake
	}

	v, _, err := d.burst(false, 1)
	if err != nil {
		d.log.Warn("sample read failed", zap.Error(err))
	} else {
		n.Vector = v
		d.feedOffset(v)
	}

	switch {
	case n.Type == accel.NotifySleep:
		d.timer.Stop()
	case !d.shockPending:
		d.timer.ChangePeriod(d.plan.PollTimeout)
	}
	d.log.Debug("cycle",
		zap.Stringer("event", ev),
		zap.Stringer("type", n.Type),
		zap.Uint8("int_src", src),
		zap.Uint8("status", status))
	return n, true
}

// finishShock performs the burst read scheduled by a tap and resumes
// polling. A burst without any sample above the shock magnitude is dropped
// without notification.
func (d *Driver) finishShock() (accel.Notification, bool) {
	d.shockPending = false
	v, severity, err := d.burst(true, fifoDepth)
	d.timer.ChangePeriod(d.plan.PollTimeout)
	if errors.Is(err, errBadShock) {
		d.log.Info("bad shock, no sample above threshold")
		return accel.Notification{}, false
	}
	if err != nil {
		return d.failure(eventTimeout, err)
	}
	x, y, z := v.MilliG()
	d.log.Debug("shock",
		zap.Int32("x_mg", x), zap.Int32("y_mg", y), zap.Int32("z_mg", z),
		zap.Uint32("severity", severity))
	return accel.Notification{Type: accel.NotifyShock, Vector: v, Severity: severity}, true
}

func (d *Driver) failure(ev event, err error) (accel.Notification, bool) {
	d.log.Warn("processing failed", zap.Stringer("event", ev), zap.Error(err))
	return accel.Notification{Type: accel.NotifyFailure}, true
}
