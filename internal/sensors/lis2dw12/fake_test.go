package lis2dw12

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"

	"accelwake/internal/accel"
)

var errNoAck = errors.New("no ack")

// fakeBus is a register map for a single device. ALL_INT_SRC clears on read
// and OUT_X_L serves the fifo bytes.
type fakeBus struct {
	mu sync.Mutex

	present map[uint16]bool
	regs    map[byte]byte
	fifo    []byte

	reads  []byte
	writes []accel.RegItem
	closed int

	// Optional overrides.
	readErrFor  map[byte]error
	writeErrFor map[byte]error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		present: map[uint16]bool{addrPrimary: true},
		regs: map[byte]byte{
			regWhoAmI: whoAmIVal,
			regStatus: statusDRDY,
		},
		readErrFor:  map[byte]error{},
		writeErrFor: map[byte]error{},
	}
}

func (b *fakeBus) ReadRegs(addr uint16, reg byte, dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.present[addr] {
		return errNoAck
	}
	b.reads = append(b.reads, reg)
	if err := b.readErrFor[reg]; err != nil {
		return err
	}
	if reg == regOutXL {
		if len(b.fifo) < len(dst) {
			return errors.New("short fifo")
		}
		copy(dst, b.fifo)
		return nil
	}
	for i := range dst {
		dst[i] = b.regs[reg+byte(i)]
	}
	if reg == regAllIntSrc {
		b.regs[regAllIntSrc] = 0
	}
	return nil
}

func (b *fakeBus) WriteRegs(addr uint16, reg byte, src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.present[addr] {
		return errNoAck
	}
	if err := b.writeErrFor[reg]; err != nil {
		return err
	}
	for i, v := range src {
		b.writes = append(b.writes, accel.RegItem{Reg: reg + byte(i), Value: v})
		b.regs[reg+byte(i)] = v
	}
	return nil
}

func (b *fakeBus) Probe(addr uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.present[addr] {
		return errNoAck
	}
	return nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *fakeBus) set(reg, v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[reg] = v
}

// setSamples queues samples in the fifo, each given as raw X, Y, Z counts.
func (b *fakeBus) setSamples(samples ...[3]int16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fifo = b.fifo[:0]
	for _, s := range samples {
		for _, c := range s {
			b.fifo = binary.LittleEndian.AppendUint16(b.fifo, uint16(c))
		}
	}
	b.regs[regFIFOSamples] = byte(len(samples))
}

func (b *fakeBus) resetLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads = nil
	b.writes = nil
}

func (b *fakeBus) writesTo(reg byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []byte
	for _, w := range b.writes {
		if w.Reg == reg {
			out = append(out, w.Value)
		}
	}
	return out
}

type fakeTimer struct {
	periods []time.Duration
	stops   int
	armed   bool
}

func (t *fakeTimer) ChangePeriod(d time.Duration) {
	t.periods = append(t.periods, d)
	t.armed = true
}

func (t *fakeTimer) Stop() {
	t.stops++
	t.armed = false
}

func (t *fakeTimer) last() time.Duration {
	if len(t.periods) == 0 {
		return 0
	}
	return t.periods[len(t.periods)-1]
}

type fakeTimers struct {
	timer *fakeTimer
	fire  func()
}

func (s *fakeTimers) NewTimer(fn func()) accel.Timer {
	s.timer = &fakeTimer{}
	s.fire = fn
	return s.timer
}

type fakeIRQ struct {
	handler   func()
	attachErr error
	detached  int
}

func (f *fakeIRQ) Attach(h func()) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.handler = h
	return nil
}

func (f *fakeIRQ) Detach() error {
	f.handler = nil
	f.detached++
	return nil
}

type fakePower struct {
	on     bool
	closed bool
}

func (p *fakePower) SetPower(on bool) error {
	p.on = on
	return nil
}

func (p *fakePower) Close() error {
	p.closed = true
	return nil
}

type harness struct {
	d      *Driver
	bus    *fakeBus
	timers *fakeTimers
	irq    *fakeIRQ
	power  *fakePower
	clk    *clock.Mock
	got    []accel.Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	oldSleep := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = oldSleep })

	h := &harness{
		bus:    newFakeBus(),
		timers: &fakeTimers{},
		irq:    &fakeIRQ{},
		power:  &fakePower{},
		clk:    clock.NewMock(),
	}
	h.d = New(Options{
		Bus:    func() (accel.RegisterBus, error) { return h.bus, nil },
		Timers: h.timers,
		Clock:  h.clk,
		Logger: zaptest.NewLogger(t),
	})
	return h
}

func (h *harness) config() accel.Config {
	return accel.Config{
		MotionSensitivity: 16,
		MotionDebounce:    1,
		ShockThreshold:    40,
		WakeDuration:      0,
		ODR:               accel.ODR12Hz5,
		FS:                accel.FS4G,
		Callback:          func(n accel.Notification) { h.got = append(h.got, n) },
	}
}

// open initializes and opens the driver, stopping its worker so tests drive
// events synchronously through step.
func (h *harness) open(t *testing.T, cfg accel.Config) {
	t.Helper()
	if err := h.d.Init(accel.InitInfo{Interrupt: h.irq, Power: h.power}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.d.Open(cfg); err != nil {
		t.Fatalf("Open: %v", err)
	}
	h.d.mu.Lock()
	stop := h.d.stop
	h.d.mu.Unlock()
	t.Cleanup(func() { _ = h.d.Close() })
	h.pauseWorker(stop)
}

// pauseWorker replaces the running worker's stop channel with a private one
// so the worker exits and events stay queued for step.
func (h *harness) pauseWorker(stop chan struct{}) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	close(stop)
	h.d.stop = make(chan struct{})
}

func (h *harness) step(ev event) {
	h.d.mu.Lock()
	stop := h.d.stop
	h.d.mu.Unlock()
	h.d.handle(stop, ev)
}

func (h *harness) timer() *fakeTimer {
	return h.timers.timer
}
