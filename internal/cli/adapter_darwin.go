//go:build darwin

package cli

import "github.com/gokhd/gokhd/internal/platform"

// newAdapter builds the darwin platform.Adapter. devicePath is accepted for
// signature parity with the linux build (where it selects the evdev
// keyboard device) but is unused here: CGEventTap taps every keyboard.
func newAdapter(devicePath string) platform.Adapter {
	return platform.New()
}
