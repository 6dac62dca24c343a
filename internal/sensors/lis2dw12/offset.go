package lis2dw12

import (
	"go.uber.org/zap"

	"accelwake/internal/fix16"
)

// User offset weight is 15.6 mg per LSB (CTRL7 USR_OFF_W set).
const offsetMaxSteps = 69

var offsetStep = fix16.FromFloat(0.0156)

var offsetRegs = [3]byte{regXOfsUsr, regYOfsUsr, regZOfsUsr}

// offsetSteps converts a gravity vector to user offset register steps. ok is
// false when any axis exceeds the register's useful range, which means the
// sample carries more than gravity.
func offsetSteps(v fix16.Vector) (steps [3]int8, ok bool) {
	for i, c := range [3]fix16.Fixed{v.X, v.Y, v.Z} {
		s := fix16.Div(c, offsetStep).Int()
		if s > offsetMaxSteps || s < -offsetMaxSteps {
			return steps, false
		}
		steps[i] = int8(s)
	}
	return steps, true
}

// feedOffset tares the wake-up detector against the resting vector v. Only
// changed axes are written. Must be called with d.mu held.
func (d *Driver) feedOffset(v fix16.Vector) {
	steps, ok := offsetSteps(v)
	if !ok {
		return
	}
	for i, s := range steps {
		if s == d.offset[i] {
			continue
		}
		if err := d.writeReg(offsetRegs[i], byte(s)); err != nil {
			d.log.Warn("user offset write failed", zap.Int("axis", i), zap.Error(err))
			continue
		}
		d.offset[i] = s
	}
}
