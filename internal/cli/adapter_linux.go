//go:build linux

package cli

import "github.com/gokhd/gokhd/internal/platform"

// newAdapter builds the linux platform.Adapter over the given evdev device
// path; an empty devicePath auto-detects a keyboard.
func newAdapter(devicePath string) platform.Adapter {
	return platform.New(devicePath)
}
