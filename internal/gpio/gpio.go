// Package gpio exposes the accelerometer interrupt and power rail lines
// through the Linux GPIO character device.
package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const consumer = "accelwake"

// LineSpec selects a line. Name takes precedence over Offset. An empty Chip
// searches every gpiochip under /dev.
type LineSpec struct {
	Chip   string
	Name   string
	Offset int
}

func (s LineSpec) String() string {
	chip := s.Chip
	if chip == "" {
		chip = "*"
	}
	if s.Name != "" {
		return fmt.Sprintf("%s:%s", chip, s.Name)
	}
	return fmt.Sprintf("%s:%d", chip, s.Offset)
}

// chipCandidates lists chip device paths to try, in order.
func chipCandidates(devDir, chip string) []string {
	if chip != "" {
		if !strings.ContainsRune(chip, '/') {
			chip = filepath.Join(devDir, chip)
		}
		return []string{chip}
	}
	var out []string
	entries, _ := os.ReadDir(devDir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			out = append(out, filepath.Join(devDir, e.Name()))
		}
	}
	return out
}
