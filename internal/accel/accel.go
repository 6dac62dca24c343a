// Package accel defines the surface shared by accelerometer drivers: the
// semantic configuration, notifications, the result taxonomy, the ioctl
// requests and the collaborators a driver consumes.
package accel

import (
	"fmt"
	"time"

	"accelwake/internal/fix16"
)

type FullScale uint8

const (
	FS2G FullScale = iota
	FS4G
	FS8G
	FS16G
)

func (fs FullScale) Valid() bool { return fs <= FS16G }

// G returns the range in g (2, 4, 8 or 16).
func (fs FullScale) G() int { return 2 << fs }

func (fs FullScale) String() string {
	if !fs.Valid() {
		return fmt.Sprintf("FullScale(%d)", uint8(fs))
	}
	return fmt.Sprintf("%dG", fs.G())
}

// FullScaleFromG maps 2, 4, 8 or 16 to a FullScale.
func FullScaleFromG(g int) (FullScale, error) {
	switch g {
	case 2:
		return FS2G, nil
	case 4:
		return FS4G, nil
	case 8:
		return FS8G, nil
	case 16:
		return FS16G, nil
	}
	return 0, fmt.Errorf("%w: full scale %dG", ErrBadParameters, g)
}

// ODR is the output data rate index, 12.5 Hz doubling up to 200 Hz.
type ODR uint8

const (
	ODR12Hz5 ODR = iota
	ODR25Hz
	ODR50Hz
	ODR100Hz
	ODR200Hz
)

func (o ODR) Valid() bool { return o <= ODR200Hz }

// DeciHz returns the rate in tenths of Hz (125 for 12.5 Hz).
func (o ODR) DeciHz() int { return 125 << o }

func (o ODR) Hz() float64 { return float64(o.DeciHz()) / 10 }

func (o ODR) String() string {
	if !o.Valid() {
		return fmt.Sprintf("ODR(%d)", uint8(o))
	}
	return fmt.Sprintf("%gHz", o.Hz())
}

// ODRFromHz maps 12.5, 25, 50, 100 or 200 to an ODR.
func ODRFromHz(hz float64) (ODR, error) {
	for o := ODR12Hz5; o <= ODR200Hz; o++ {
		if o.Hz() == hz {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: odr %gHz", ErrBadParameters, hz)
}

type State uint8

const (
	StatePowerOff State = iota
	StateStarting
	StateWake
	StateSleep
)

func (s State) String() string {
	switch s {
	case StatePowerOff:
		return "power_off"
	case StateStarting:
		return "starting"
	case StateWake:
		return "wake"
	case StateSleep:
		return "sleep"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

type NotificationType uint8

const (
	NotifySleep NotificationType = iota
	NotifyWake
	NotifyShock
	NotifyFailure
)

func (t NotificationType) String() string {
	switch t {
	case NotifySleep:
		return "sleep"
	case NotifyWake:
		return "wake"
	case NotifyShock:
		return "shock"
	case NotifyFailure:
		return "failure"
	}
	return fmt.Sprintf("NotificationType(%d)", uint8(t))
}

// Notification is delivered to the user callback. Severity is only set for
// shocks.
type Notification struct {
	Type     NotificationType
	Vector   fix16.Vector
	Severity uint32
}

// Callback receives notifications on the driver's worker goroutine. It must
// not block for long; it may call Close.
type Callback func(Notification)

// Config is the semantic configuration applied at open or reconfigure.
type Config struct {
	// MotionSensitivity in steps of 0.063 g.
	MotionSensitivity uint8
	// MotionDebounce in steps of 1/ODR, 0..3.
	MotionDebounce uint8
	// ShockThreshold in steps of FS/64. 0 disables shock detection.
	ShockThreshold uint8
	// WakeDuration is the inactivity time before the device goes to sleep.
	WakeDuration time.Duration
	ODR          ODR
	FS           FullScale
	Callback     Callback
}

// Validate rejects configurations before any bus traffic.
func (c Config) Validate() error {
	if !c.FS.Valid() {
		return fmt.Errorf("%w: %s", ErrBadParameters, c.FS)
	}
	if !c.ODR.Valid() {
		return fmt.Errorf("%w: %s", ErrBadParameters, c.ODR)
	}
	if c.WakeDuration < 0 {
		return fmt.Errorf("%w: negative wake duration", ErrBadParameters)
	}
	return nil
}

// RegItem is a register address and value.
type RegItem struct {
	Reg   byte
	Value byte
}

// Info describes the currently programmed configuration.
type Info struct {
	Address      uint16
	FS           FullScale
	ODR          ODR
	WakeTime     time.Duration
	PollTimeout  time.Duration
	ShockEnabled bool
	// EmptyFIFOReads counts reads where the device reported an empty queue
	// and a single sample was read anyway.
	EmptyFIFOReads uint32
}

// Magnitude returns |v|, halving intermediates at 16G.
func Magnitude(fs FullScale, v fix16.Vector) fix16.Fixed {
	if fs == FS16G {
		return v.HalvedMagnitude()
	}
	return v.Magnitude()
}
