//go:build !linux

package i2c

import "fmt"

var errUnsupported = fmt.Errorf("i2c: unsupported OS (need linux)")

type Bus struct{}

func Open(path string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Close() error { return nil }

func (b *Bus) ReadRegs(addr uint16, reg byte, dst []byte) error  { return errUnsupported }
func (b *Bus) WriteRegs(addr uint16, reg byte, src []byte) error { return errUnsupported }
func (b *Bus) Probe(addr uint16) error                           { return errUnsupported }
