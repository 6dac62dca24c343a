//go:build linux

package i2c

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func openNull(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile /dev/null: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return &Bus{f: f, path: "/dev/null"}
}

func TestBus_RejectsInvalidAddr(t *testing.T) {
	b := openNull(t)
	for _, addr := range []uint16{0, 0x80} {
		if err := b.WriteRegs(addr, 0x20, []byte{0x00}); err == nil || !strings.Contains(err.Error(), "invalid addr") {
			t.Fatalf("WriteRegs(0x%X) err=%v want invalid addr", addr, err)
		}
		if err := b.ReadRegs(addr, 0x0F, make([]byte, 1)); err == nil || !strings.Contains(err.Error(), "invalid addr") {
			t.Fatalf("ReadRegs(0x%X) err=%v want invalid addr", addr, err)
		}
		if err := b.Probe(addr); err == nil {
			t.Fatalf("Probe(0x%X): expected error", addr)
		}
	}
}

func TestBus_EmptyTransferIsNoop(t *testing.T) {
	b := openNull(t)
	if err := b.transfer(0x18, nil, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestBus_IoctlErrorNamesDevice(t *testing.T) {
	b := openNull(t)
	// /dev/null does not implement I2C_RDWR.
	err := b.ReadRegs(0x18, 0x0F, make([]byte, 1))
	if err == nil || !strings.Contains(err.Error(), "/dev/null addr 0x18") {
		t.Fatalf("err=%v want ioctl error naming the device", err)
	}
}

func TestBus_ClosedBus(t *testing.T) {
	b := &Bus{}
	if err := b.Probe(0x18); !errors.Is(err, errClosed) {
		t.Fatalf("err=%v want errClosed", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpener_MissingDevice(t *testing.T) {
	open := Opener(t.TempDir() + "/i2c-missing")
	if _, err := open(); err == nil || !strings.Contains(err.Error(), "i2c: open") {
		t.Fatalf("err=%v want open error", err)
	}
}
