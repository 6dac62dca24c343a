//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"accelwake/internal/accel"
)

var devDir = "/dev"

// requestLine finds spec on the candidate chips and requests it with opts.
// The returned chip stays open for the lifetime of the line.
func requestLine(spec LineSpec, opts ...gpiocdev.LineReqOption) (*gpiocdev.Chip, *gpiocdev.Line, error) {
	opts = append(opts, gpiocdev.WithConsumer(consumer))
	for _, path := range chipCandidates(devDir, spec.Chip) {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset := spec.Offset
		if spec.Name != "" {
			offset, err = chip.FindLine(spec.Name)
			if err != nil {
				_ = chip.Close()
				continue
			}
		}
		line, err := chip.RequestLine(offset, opts...)
		if err != nil {
			_ = chip.Close()
			continue
		}
		return chip, line, nil
	}
	return nil, nil, fmt.Errorf("gpio: line %s not found (or busy)", spec)
}

// Interrupt is a rising-edge input. The line is only requested while a
// handler is attached. It implements accel.InterruptLine.
type Interrupt struct {
	spec LineSpec

	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

var _ accel.InterruptLine = (*Interrupt)(nil)

func NewInterrupt(spec LineSpec) *Interrupt {
	return &Interrupt{spec: spec}
}

func (i *Interrupt) Attach(handler func()) error {
	if handler == nil {
		return errors.New("gpio: nil interrupt handler")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.line != nil {
		return fmt.Errorf("gpio: interrupt %s already attached", i.spec)
	}
	chip, line, err := requestLine(i.spec,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { handler() }),
	)
	if err != nil {
		return err
	}
	i.chip, i.line = chip, line
	return nil
}

func (i *Interrupt) Detach() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.line == nil {
		return nil
	}
	err := i.line.Close()
	i.line = nil
	if i.chip != nil {
		_ = i.chip.Close()
		i.chip = nil
	}
	return err
}

// Power drives the sensor supply rail. It implements accel.PowerSwitch.
type Power struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

var _ accel.PowerSwitch = (*Power)(nil)

// OpenPower requests spec as an output, initially off.
func OpenPower(spec LineSpec) (*Power, error) {
	chip, line, err := requestLine(spec, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &Power{chip: chip, line: line}, nil
}

func (p *Power) SetPower(on bool) error {
	if p == nil || p.line == nil {
		return errors.New("gpio: power line not open")
	}
	v := 0
	if on {
		v = 1
	}
	return p.line.SetValue(v)
}

// Close releases the line. The rail keeps its last level.
func (p *Power) Close() error {
	if p == nil || p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	if p.chip != nil {
		_ = p.chip.Close()
		p.chip = nil
	}
	return err
}
