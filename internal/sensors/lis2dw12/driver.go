// Package lis2dw12 drives an LIS2DW12 3-axis accelerometer in its
// low-power sleep/wake mode with tap-triggered shock capture.
//
// The device signals wake-up and single tap on INT1 and sleep state on INT2
// (routed to INT1). Every interrupt edge and timer expiry is handed to a
// per-driver worker goroutine that reads the latched sources, classifies
// the cycle and calls the user callback.
package lis2dw12

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"accelwake/internal/accel"
	"accelwake/internal/fix16"
)

var sleep = time.Sleep

const (
	bootTime   = time.Millisecond
	eventQueue = 8
)

// Supply current in nA while awake, by ODR.
var wakeCurrentNA = [...]uint32{2000, 3100, 5400, 9600, 16300}

const sleepCurrentNA = 2000

type event uint8

const (
	eventInterrupt event = iota
	eventTimeout
)

func (e event) String() string {
	if e == eventTimeout {
		return "timeout"
	}
	return "interrupt"
}

type Options struct {
	// Bus opens the register bus. The driver holds it only while open.
	Bus    accel.BusOpener
	Timers accel.TimerService
	// Clock is used for the shock debounce window. Defaults to the wall clock.
	Clock  clock.Clock
	Logger *zap.Logger
}

// Driver is one LIS2DW12 instance. It implements accel.Driver.
type Driver struct {
	openBus accel.BusOpener
	timers  accel.TimerService
	clk     clock.Clock
	log     *zap.Logger

	events chan event

	mu          sync.Mutex
	initialized bool
	isOpen      bool
	irq         accel.InterruptLine
	power       accel.PowerSwitch
	timer       accel.Timer
	stop        chan struct{}

	bus  accel.RegisterBus
	addr uint16

	fs   accel.FullScale
	odr  accel.ODR
	plan Plan
	cb   accel.Callback

	opening      bool
	shockPending bool
	shockSeen    bool
	lastShock    time.Time
	shockDue     time.Time

	offset    [3]int8
	emptyFIFO uint32
	fifo      [fifoDepth * sampleSize]byte
}

var _ accel.Driver = (*Driver)(nil)

func New(opts Options) *Driver {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		openBus: opts.Bus,
		timers:  opts.Timers,
		clk:     clk,
		log:     log.Named("lis2dw12"),
		events:  make(chan event, eventQueue),
	}
}

// Init probes for the device and leaves it in power-down mode. The rail,
// when switchable, stays on.
func (d *Driver) Init(info accel.InitInfo) error {
	if info.Interrupt == nil || d.openBus == nil || d.timers == nil {
		return fmt.Errorf("lis2dw12: init: %w", accel.ErrBadParameters)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}

	if err := powerOn(info.Power); err != nil {
		return err
	}
	bus, err := d.openBus()
	if err != nil {
		return fmt.Errorf("lis2dw12: open bus: %w: %w", accel.ErrOther, err)
	}
	sleep(bootTime)

	d.bus = bus
	defer func() { d.bus = nil }()

	addr, err := d.detect()
	if err != nil {
		if info.Power != nil {
			err = multierr.Append(err, info.Power.Close())
		}
		return multierr.Append(err, bus.Close())
	}
	d.addr = addr
	if err := d.writeReg(regCtrl1, 0); err != nil {
		return multierr.Append(err, bus.Close())
	}
	if err := bus.Close(); err != nil {
		return fmt.Errorf("lis2dw12: close bus: %w: %w", accel.ErrOther, err)
	}

	d.irq = info.Interrupt
	d.power = info.Power
	d.timer = d.timers.NewTimer(func() { d.post(eventTimeout) })
	d.initialized = true
	d.log.Info("device found", zap.String("addr", fmt.Sprintf("0x%02X", addr)))
	return nil
}

// detect tries both strap addresses and verifies the chip identity.
func (d *Driver) detect() (uint16, error) {
	for _, addr := range []uint16{addrPrimary, addrSecondary} {
		if err := d.bus.Probe(addr); err != nil {
			continue
		}
		d.addr = addr
		who, err := d.readReg(regWhoAmI)
		if err != nil {
			return 0, err
		}
		if who != whoAmIVal {
			d.log.Warn("unexpected device identity",
				zap.String("addr", fmt.Sprintf("0x%02X", addr)),
				zap.String("whoami", fmt.Sprintf("0x%02X", who)))
			continue
		}
		return addr, nil
	}
	return 0, fmt.Errorf("lis2dw12: %w", accel.ErrChipNotFound)
}

func powerOn(p accel.PowerSwitch) error {
	if p == nil {
		return nil
	}
	if err := p.SetPower(true); err != nil {
		return fmt.Errorf("lis2dw12: power on: %w: %w", accel.ErrOther, err)
	}
	return nil
}

// Open configures the device and starts interrupt processing. Notifications
// are delivered to cfg.Callback on the driver's worker goroutine.
func (d *Driver) Open(cfg accel.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return accel.ErrNotInitialized
	}
	if d.isOpen {
		return nil
	}
	if cfg.Callback == nil {
		return fmt.Errorf("lis2dw12: nil callback: %w", accel.ErrBadParameters)
	}
	plan, err := Translate(cfg)
	if err != nil {
		return err
	}

	if err := powerOn(d.power); err != nil {
		return err
	}
	bus, err := d.openBus()
	if err != nil {
		return fmt.Errorf("lis2dw12: open bus: %w: %w", accel.ErrOther, err)
	}
	sleep(bootTime)
	d.bus = bus
	d.drainEvents()

	if err := d.irq.Attach(func() { d.post(eventInterrupt) }); err != nil {
		d.bus = nil
		return multierr.Append(fmt.Errorf("lis2dw12: attach interrupt: %w: %w", accel.ErrOther, err), bus.Close())
	}
	if err := d.configure(plan, cfg); err != nil {
		d.bus = nil
		err = multierr.Append(err, d.irq.Detach())
		return multierr.Append(err, bus.Close())
	}

	d.isOpen = true
	d.stop = make(chan struct{})
	go d.run(d.stop)
	return nil
}

// configure writes plan and commits it to the context. The device enters
// the starting state until the first wake time has elapsed.
func (d *Driver) configure(plan Plan, cfg accel.Config) error {
	for _, r := range plan.Registers {
		if err := d.writeReg(r.Reg, r.Value); err != nil {
			return err
		}
	}
	if plan.ShockRequested && !plan.ShockActive {
		d.log.Warn("shock threshold below full scale resolution, shock detection disabled",
			zap.Uint8("threshold", cfg.ShockThreshold), zap.Stringer("fs", cfg.FS))
	}

	d.fs = cfg.FS
	d.odr = cfg.ODR
	d.plan = plan
	d.cb = cfg.Callback
	d.opening = true
	d.shockPending = false
	d.timer.ChangePeriod(plan.WakeTime + openMargin)
	d.log.Debug("configured",
		zap.Stringer("fs", cfg.FS),
		zap.Stringer("odr", cfg.ODR),
		zap.Duration("wake_time", plan.WakeTime),
		zap.Duration("poll_timeout", plan.PollTimeout),
		zap.Bool("shock", plan.ShockActive))
	return nil
}

// Close stops processing and puts the device in power-down mode. It is safe
// to call from the callback. A notification whose delivery already began on
// the worker may still complete after Close returns on another goroutine.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return accel.ErrNotInitialized
	}
	if !d.isOpen {
		return nil
	}

	d.timer.Stop()
	close(d.stop)

	var err error
	err = multierr.Append(err, d.writeReg(regCtrl4Int1, 0))
	err = multierr.Append(err, d.writeReg(regCtrl5Int2, 0))
	err = multierr.Append(err, d.writeReg(regCtrl1, 0))
	if derr := d.irq.Detach(); derr != nil {
		err = multierr.Append(err, fmt.Errorf("lis2dw12: detach interrupt: %w: %w", accel.ErrOther, derr))
	}
	if cerr := d.bus.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("lis2dw12: close bus: %w: %w", accel.ErrOther, cerr))
	}

	d.bus = nil
	d.stop = nil
	d.cb = nil
	d.isOpen = false
	d.opening = false
	d.shockPending = false
	return err
}

// ReadData returns the newest queued sample.
func (d *Driver) ReadData() (fix16.Vector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return fix16.Vector{}, err
	}
	v, _, err := d.burst(false, fifoDepth)
	return v, err
}

func (d *Driver) Ioctl(req *accel.IoctlRequest) error {
	if req == nil {
		return fmt.Errorf("lis2dw12: nil ioctl request: %w", accel.ErrBadParameters)
	}
	var err error
	switch req.Kind {
	case accel.IoctlReconfigure:
		if req.Config == nil {
			return fmt.Errorf("lis2dw12: reconfigure without config: %w", accel.ErrBadParameters)
		}
		return d.Reconfigure(*req.Config)
	case accel.IoctlGetState:
		req.State, err = d.State()
	case accel.IoctlGetCurrent:
		req.Current, err = d.Current()
	case accel.IoctlGetInfo:
		req.Info, err = d.Info()
	case accel.IoctlReadReg:
		req.Reg, err = d.ReadRegister(req.Reg.Reg)
	case accel.IoctlWriteReg:
		err = d.WriteRegister(req.Reg)
	default:
		err = fmt.Errorf("lis2dw12: ioctl kind %d: %w", req.Kind, accel.ErrBadParameters)
	}
	return err
}

// Reconfigure soft-resets the device and applies cfg. It is rejected while a
// shock burst read is pending.
func (d *Driver) Reconfigure(cfg accel.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if cfg.Callback == nil {
		return fmt.Errorf("lis2dw12: nil callback: %w", accel.ErrBadParameters)
	}
	if d.shockPending {
		return fmt.Errorf("lis2dw12: shock read pending: %w", accel.ErrBadParameters)
	}
	plan, err := Translate(cfg)
	if err != nil {
		return err
	}

	if err := d.writeReg(regCtrl2, ctrl2SoftReset); err != nil {
		return err
	}
	sleep(bootTime)
	d.offset = [3]int8{}
	return d.configure(plan, cfg)
}

// State reports Starting until the first wake time has elapsed, then the
// device's own sleep state.
func (d *Driver) State() (accel.State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return accel.StatePowerOff, err
	}
	return d.state()
}

func (d *Driver) state() (accel.State, error) {
	if d.opening {
		return accel.StateStarting, nil
	}
	status, err := d.readReg(regStatus)
	if err != nil {
		return accel.StatePowerOff, err
	}
	if status&statusSleepState != 0 {
		return accel.StateSleep, nil
	}
	return accel.StateWake, nil
}

// Current returns the typical supply current in nA for the present state.
func (d *Driver) Current() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	s, err := d.state()
	if err != nil {
		return 0, err
	}
	if s == accel.StateWake {
		return wakeCurrentNA[d.odr], nil
	}
	return sleepCurrentNA, nil
}

func (d *Driver) Info() (accel.Info, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return accel.Info{}, err
	}
	return accel.Info{
		Address:        d.addr,
		FS:             d.fs,
		ODR:            d.odr,
		WakeTime:       d.plan.WakeTime,
		PollTimeout:    d.plan.PollTimeout,
		ShockEnabled:   d.plan.ShockActive,
		EmptyFIFOReads: d.emptyFIFO,
	}, nil
}

// ReadRegister reads a debug register. Addresses below the first mapped
// register are moved up to it.
func (d *Driver) ReadRegister(reg byte) (accel.RegItem, error) {
	if reg < regFirst {
		reg = regFirst
	}
	if reg > regLast {
		return accel.RegItem{Reg: reg}, fmt.Errorf("lis2dw12: register 0x%02X: %w", reg, accel.ErrBadParameters)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return accel.RegItem{Reg: reg}, err
	}
	v, err := d.readReg(reg)
	return accel.RegItem{Reg: reg, Value: v}, err
}

func (d *Driver) WriteRegister(item accel.RegItem) error {
	if item.Reg < regFirst || item.Reg > regLast {
		return fmt.Errorf("lis2dw12: register 0x%02X: %w", item.Reg, accel.ErrBadParameters)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.writeReg(item.Reg, item.Value)
}

func (d *Driver) checkOpen() error {
	if !d.initialized {
		return accel.ErrNotInitialized
	}
	if !d.isOpen {
		return accel.ErrNotOpen
	}
	return nil
}

func (d *Driver) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.readRegs(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Driver) readRegs(reg byte, dst []byte) error {
	if err := d.bus.ReadRegs(d.addr, reg, dst); err != nil {
		return fmt.Errorf("lis2dw12: read 0x%02X: %w: %w", reg, accel.ErrOther, err)
	}
	return nil
}

func (d *Driver) writeReg(reg, value byte) error {
	if err := d.bus.WriteRegs(d.addr, reg, []byte{value}); err != nil {
		return fmt.Errorf("lis2dw12: write 0x%02X: %w: %w", reg, accel.ErrOther, err)
	}
	return nil
}
