package i2c

import (
	"fmt"

	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"accelwake/internal/accel"
)

var hostInit = host.Init

// PeriphBus adapts a periph.io bus to accel.RegisterBus.
type PeriphBus struct {
	bus periphi2c.BusCloser
}

var _ accel.RegisterBus = (*PeriphBus)(nil)

func FromPeriph(b periphi2c.BusCloser) *PeriphBus {
	return &PeriphBus{bus: b}
}

// PeriphOpener initializes the periph host drivers and opens the named bus
// ("" selects the first one registered).
func PeriphOpener(name string) accel.BusOpener {
	return func() (accel.RegisterBus, error) {
		if _, err := hostInit(); err != nil {
			return nil, fmt.Errorf("i2c: periph host init: %w", err)
		}
		b, err := i2creg.Open(name)
		if err != nil {
			return nil, fmt.Errorf("i2c: periph open %q: %w", name, err)
		}
		return FromPeriph(b), nil
	}
}

func (p *PeriphBus) ReadRegs(addr uint16, reg byte, dst []byte) error {
	return p.bus.Tx(addr, []byte{reg}, dst)
}

func (p *PeriphBus) WriteRegs(addr uint16, reg byte, src []byte) error {
	buf := make([]byte, 0, 1+len(src))
	buf = append(buf, reg)
	buf = append(buf, src...)
	return p.bus.Tx(addr, buf, nil)
}

func (p *PeriphBus) Probe(addr uint16) error {
	var one [1]byte
	return p.bus.Tx(addr, nil, one[:])
}

func (p *PeriphBus) Close() error {
	return p.bus.Close()
}
