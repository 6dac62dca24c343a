package lis2dw12

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"accelwake/internal/accel"
	"accelwake/internal/fix16"
)

const (
	drdyPolls = 10
	// Samples at or below this magnitude are not part of a shock.
	shockMinMilliG = 2000
	// Q format of a 2G sample; each FS step drops one fractional bit.
	qn2G = 14
)

var errBadShock = errors.New("lis2dw12: no sample above shock magnitude")

// burst reads up to max queued samples. In shock mode it returns the
// dominant vector and the shock severity; otherwise the newest sample.
// Must be called with d.mu held.
func (d *Driver) burst(shock bool, max int) (fix16.Vector, uint32, error) {
	ready := false
	for i := 0; i < drdyPolls; i++ {
		status, err := d.readReg(regStatus)
		if err != nil {
			return fix16.Vector{}, 0, err
		}
		if status&statusDRDY != 0 {
			ready = true
			break
		}
	}
	if !ready {
		return fix16.Vector{}, 0, fmt.Errorf("lis2dw12: status: %w", accel.ErrDataNotReady)
	}

	samples, err := d.readReg(regFIFOSamples)
	if err != nil {
		return fix16.Vector{}, 0, err
	}
	n := int(samples & fifoSamplesMask)
	if n == 0 {
		d.emptyFIFO++
		d.log.Debug("fifo reported empty, reading one sample", zap.Uint32("count", d.emptyFIFO))
		n = 1
	} else if n > max {
		n = max
	}

	buf := d.fifo[:n*sampleSize]
	if err := d.readRegs(regOutXL, buf); err != nil {
		return fix16.Vector{}, 0, err
	}

	var (
		v        fix16.Vector
		best     fix16.Vector
		bestMG   int32
		found    bool
		severity float64
	)
	for i := 0; i < n; i++ {
		v = decodeSample(buf[i*sampleSize:], d.fs)
		if !shock {
			continue
		}
		mag := accel.Magnitude(d.fs, v)
		mg := fix16.ToMilliG(mag)
		if mg <= shockMinMilliG {
			continue
		}
		severity += magPow25(mag)
		if mg > bestMG {
			best, bestMG, found = v, mg, true
		}
	}

	if !shock {
		return v, 0, nil
	}
	if !found {
		return fix16.Vector{}, 0, errBadShock
	}
	return best, uint32(severity * severityWeight(d.odr)), nil
}

// decodeSample converts one little-endian X/Y/Z sample to g.
func decodeSample(s []byte, fs accel.FullScale) fix16.Vector {
	qn := uint(qn2G - int(fs))
	return fix16.Vector{
		X: fix16.FromQn(int16(binary.LittleEndian.Uint16(s[0:])), qn),
		Y: fix16.FromQn(int16(binary.LittleEndian.Uint16(s[2:])), qn),
		Z: fix16.FromQn(int16(binary.LittleEndian.Uint16(s[4:])), qn),
	}
}

// magPow25 returns |v|^2.5 in g units.
func magPow25(mag fix16.Fixed) float64 {
	m := mag.Float()
	return m * m * fix16.Sqrt(mag).Float()
}

// severityWeight scales the index down at higher rates, which put more
// samples into the same shock.
func severityWeight(odr accel.ODR) float64 {
	return accel.ODR200Hz.Hz() / (float64(odr+1) * accel.ODR12Hz5.Hz())
}
