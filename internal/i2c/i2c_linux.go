//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Register transfers go through I2C_RDWR so a register read is one
// combined write+read with a repeated start.

const (
	flagRead     = 0x0001
	ioctlI2CRdwr = 0x0707
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

var errClosed = errors.New("i2c: bus closed")

// Bus is an open i2c-dev node (e.g. /dev/i2c-1). It implements
// accel.RegisterBus. Transfers are not serialized; the driver holds its own
// lock around every call.
type Bus struct {
	f    *os.File
	path string
}

func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Bus{f: f, path: path}, nil
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// ReadRegs reads len(dst) bytes starting at reg.
func (b *Bus) ReadRegs(addr uint16, reg byte, dst []byte) error {
	return b.transfer(addr, []byte{reg}, dst)
}

// WriteRegs writes src starting at reg in one message.
func (b *Bus) WriteRegs(addr uint16, reg byte, src []byte) error {
	buf := make([]byte, 0, 1+len(src))
	buf = append(buf, reg)
	buf = append(buf, src...)
	return b.transfer(addr, buf, nil)
}

// Probe reads one byte from addr. Without an acknowledge the kernel
// returns ENXIO or EREMOTEIO.
func (b *Bus) Probe(addr uint16) error {
	var one [1]byte
	return b.transfer(addr, nil, one[:])
}

// transfer issues w then r to addr as a single I2C_RDWR call. Empty
// buffers are skipped.
func (b *Bus) transfer(addr uint16, w, r []byte) error {
	if b == nil || b.f == nil {
		return errClosed
	}
	if addr == 0 || addr > 0x7F {
		return fmt.Errorf("i2c: invalid addr 0x%X", addr)
	}

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))}
		n++
	}
	if n == 0 {
		return nil
	}

	data := i2cRdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(n)}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), ioctlI2CRdwr, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("i2c: %s addr 0x%02X: %w", b.path, addr, errno)
	}
	return nil
}
