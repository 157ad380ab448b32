package util

import (
	"os"

	"github.com/fatih/color"
)

// IsTTY returns true if stdout is a terminal.
func IsTTY() bool {
	return isCharDevice(os.Stdout)
}

// IsInteractive reports whether both stdin and stdout are terminals, which
// the wizard needs for raw keyboard input.
func IsInteractive() bool {
	return isCharDevice(os.Stdin) && isCharDevice(os.Stdout)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// InitColor configures color output based on flags and terminal detection.
func InitColor(noColor bool) {
	if noColor || !IsTTY() {
		color.NoColor = true
	}
}
