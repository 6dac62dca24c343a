package main

import (
	"fmt"
	"io"
	"strconv"

	"accelwake/internal/accel"
	"accelwake/internal/config"
	"accelwake/internal/gpio"
)

// Registers covered by -dump.
const (
	dumpFirst = 0x0D
	dumpLast  = 0x3F
)

func lineSpec(c config.LineConfig) gpio.LineSpec {
	if n, err := strconv.Atoi(c.Line); err == nil && n >= 0 {
		return gpio.LineSpec{Chip: c.Chip, Offset: n}
	}
	return gpio.LineSpec{Chip: c.Chip, Name: c.Line}
}

type registerReader interface {
	ReadRegister(reg byte) (accel.RegItem, error)
}

func dumpRegisters(w io.Writer, r registerReader) error {
	for reg := dumpFirst; reg <= dumpLast; reg++ {
		item, err := r.ReadRegister(byte(reg))
		if err != nil {
			return fmt.Errorf("read 0x%02X: %w", reg, err)
		}
		if _, err := fmt.Fprintf(w, "0x%02X: 0x%02X\n", item.Reg, item.Value); err != nil {
			return err
		}
	}
	return nil
}
