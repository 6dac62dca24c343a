package accel

import (
	"time"

	"accelwake/internal/fix16"
)

// RegisterBus is a register-oriented serial bus. Implementations bound each
// call with their own timeout and must not be driven from two goroutines
// without external serialization.
type RegisterBus interface {
	ReadRegs(addr uint16, reg byte, dst []byte) error
	WriteRegs(addr uint16, reg byte, src []byte) error
	// Probe reports whether a device acknowledges at addr.
	Probe(addr uint16) error
	Close() error
}

// BusOpener opens the bus on demand; drivers release it when closed.
type BusOpener func() (RegisterBus, error)

// InterruptLine delivers rising edges from the device interrupt pin. The
// handler runs on the line's own goroutine.
type InterruptLine interface {
	Attach(handler func()) error
	Detach() error
}

// PowerSwitch drives the device power rail.
type PowerSwitch interface {
	SetPower(on bool) error
	Close() error
}

// Timer is a one-shot timer. ChangePeriod resets and (re)arms it; Stop is
// idempotent.
type Timer interface {
	ChangePeriod(d time.Duration)
	Stop()
}

// TimerService creates stopped one-shot timers that call fn on expiry.
type TimerService interface {
	NewTimer(fn func()) Timer
}

// InitInfo carries the board wiring handed to Init. Power may be nil when
// the rail is not switchable.
type InitInfo struct {
	Interrupt InterruptLine
	Power     PowerSwitch
}

type IoctlKind uint8

const (
	IoctlReconfigure IoctlKind = iota
	IoctlGetState
	IoctlGetCurrent
	IoctlGetInfo
	IoctlReadReg
	IoctlWriteReg
)

// IoctlRequest is both input and output of Driver.Ioctl. Only the fields
// for Kind are read or written.
type IoctlRequest struct {
	Kind IoctlKind

	Config  *Config // IoctlReconfigure
	State   State   // IoctlGetState
	Current uint32  // IoctlGetCurrent, nA
	Info    Info    // IoctlGetInfo
	Reg     RegItem // IoctlReadReg, IoctlWriteReg
}

// Driver is the capability set an accelerometer model implements.
type Driver interface {
	Init(info InitInfo) error
	Open(cfg Config) error
	Close() error
	ReadData() (fix16.Vector, error)
	Ioctl(req *IoctlRequest) error
}
