package i2c

import (
	"fmt"

	"accelwake/internal/accel"
)

var _ accel.RegisterBus = (*Bus)(nil)

// Opener returns a BusOpener for the i2c-dev node at path.
func Opener(path string) accel.BusOpener {
	return func() (accel.RegisterBus, error) {
		b, err := Open(path)
		if err != nil {
			return nil, fmt.Errorf("i2c: open %s: %w", path, err)
		}
		return b, nil
	}
}
