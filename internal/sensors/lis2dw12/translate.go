package lis2dw12

import (
	"time"

	"accelwake/internal/accel"
)

const (
	pollTimeoutMax = 10 * time.Second
	openMargin     = 200 * time.Millisecond
	shockDebounce  = 2 * time.Second
	// Samples collected after a tap trigger before the burst read.
	shockSamples = 20
	maxDebounce  = 3
)

// Plan is the register image and derived timing for one configuration.
type Plan struct {
	// Registers are written in order. Interrupt routing (CTRL4, CTRL5) comes
	// last so the device stays quiet until fully configured.
	Registers   []accel.RegItem
	WakeTime    time.Duration
	PollTimeout time.Duration

	ShockRequested bool
	// ShockActive is false when the requested threshold quantizes to zero
	// at the configured full scale.
	ShockActive bool
}

// Translate maps a semantic configuration to register values. It has no
// side effects.
func Translate(cfg accel.Config) (Plan, error) {
	if err := cfg.Validate(); err != nil {
		return Plan{}, err
	}

	wakeDur, wakeTime := wakeDuration(cfg.WakeDuration, cfg.ODR)
	poll := wakeTime / 2
	if poll > pollTimeoutMax {
		poll = pollTimeoutMax
	}

	debounce := cfg.MotionDebounce
	if debounce > maxDebounce {
		debounce = maxDebounce
	}
	tap, shockOn := shockThreshold(cfg.ShockThreshold, cfg.FS)

	regs := []accel.RegItem{
		{Reg: regFIFOCtrl, Value: fifoCtrlContinuous},
		{Reg: regCtrl2, Value: ctrl2Common},
		{Reg: regCtrl3, Value: ctrl3Latched},
		{Reg: regCtrl4Int1, Value: 0},
		{Reg: regCtrl5Int2, Value: 0},
		{Reg: regCtrl6, Value: byte(cfg.FS)<<ctrl6FSShift | ctrl6BWODROver2},
		{Reg: regWakeUpDur, Value: debounce<<wakeUpDurShift | wakeDur},
		{Reg: regWakeUpThs, Value: wakeUpThsSleepOn | motionThreshold(cfg.MotionSensitivity, cfg.FS)},
		{Reg: regCtrl1, Value: (ctrl1ODRBase + byte(cfg.ODR)) << ctrl1ODRShift},
	}
	if shockOn {
		regs = append(regs,
			accel.RegItem{Reg: regTapThsX, Value: tap},
			accel.RegItem{Reg: regTapThsY, Value: tap},
			accel.RegItem{Reg: regTapThsZ, Value: tap | tapXEn | tapYEn | tapZEn},
			accel.RegItem{Reg: regIntDur, Value: intDurDefault},
		)
	}

	var ctrl4 byte
	if shockOn {
		ctrl4 = ctrl4SingleTap
	}
	regs = append(regs,
		accel.RegItem{Reg: regCtrl7, Value: ctrl7Default | ctrl7UsrOffOnWU | ctrl7UsrOffW},
		accel.RegItem{Reg: regCtrl4Int1, Value: ctrl4},
		accel.RegItem{Reg: regCtrl5Int2, Value: ctrl5SleepState},
	)

	return Plan{
		Registers:      regs,
		WakeTime:       wakeTime,
		PollTimeout:    poll,
		ShockRequested: cfg.ShockThreshold != 0,
		ShockActive:    shockOn,
	}, nil
}

// motionThreshold quantizes a 0.063 g step sensitivity to the 6-bit
// WAKE_UP_THS field, whose step is FS/64.
func motionThreshold(sensitivity uint8, fs accel.FullScale) byte {
	v := int(sensitivity)
	if fs == accel.FS2G {
		v *= 2
	} else {
		v /= 1 << (fs - 1)
	}
	switch {
	case v == 0:
		v = 1
	case v > wakeUpThsMask:
		v = wakeUpThsMask
	}
	return byte(v)
}

func shockThreshold(threshold uint8, fs accel.FullScale) (byte, bool) {
	v := int(threshold) >> fs
	if v == 0 {
		return 0, false
	}
	if v > tapThsMask {
		v = tapThsMask
	}
	return byte(v), true
}

// wakeDuration returns the SLEEP_DUR field for the requested inactivity time
// and the wake time it actually produces.
func wakeDuration(aslp time.Duration, odr accel.ODR) (byte, time.Duration) {
	deciHz := int64(odr.DeciHz())
	ms := aslp.Milliseconds()

	var dur int64
	if ms > 0 {
		raw := ms * deciHz / 10000
		dur = raw / 512
		if raw%512 > 256 {
			dur++
		}
		if dur == 0 && absInt64(wakeTimeMS(1, deciHz)-ms) < absInt64(ms-wakeTimeMS(0, deciHz)) {
			dur = 1
		}
		if dur > wakeUpDurSleepMax {
			dur = wakeUpDurSleepMax
		}
	}
	return byte(dur), time.Duration(wakeTimeMS(dur, deciHz)) * time.Millisecond
}

func wakeTimeMS(dur, deciHz int64) int64 {
	if dur == 0 {
		return 16000 * 10 / deciHz
	}
	return 512000 * 10 * dur / deciHz
}

// shockDelay is the time needed to queue shockSamples after the trigger.
func shockDelay(odr accel.ODR) time.Duration {
	return time.Duration(shockSamples*10000/int64(odr.DeciHz())) * time.Millisecond
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
