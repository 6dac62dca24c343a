//go:build !linux

package gpio

import "fmt"

var errUnsupported = fmt.Errorf("gpio: unsupported on this platform")

type Interrupt struct{}

func NewInterrupt(spec LineSpec) *Interrupt { return &Interrupt{} }

func (i *Interrupt) Attach(handler func()) error { return errUnsupported }
func (i *Interrupt) Detach() error               { return nil }

type Power struct{}

func OpenPower(spec LineSpec) (*Power, error) { return nil, errUnsupported }

func (p *Power) SetPower(on bool) error { return errUnsupported }
func (p *Power) Close() error           { return nil }
