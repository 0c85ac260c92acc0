//go:build linux

package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/gokhd/gokhd/internal/keymodel"
)

// Linux evdev keycodes for the eight directional-modifier keys, matching
// linux/input-event-codes.h. The teacher's own hotkey_linux.go keyNameMap
// uses the same literal-code convention rather than named library
// constants (go-evdev exposes evdev.EvCode as a bare numeric type, not a
// KEY_* constant table).
const (
	keyLeftShift  evdev.EvCode = 42
	keyRightShift evdev.EvCode = 54
	keyLeftCtrl   evdev.EvCode = 29
	keyRightCtrl  evdev.EvCode = 97
	keyLeftAlt    evdev.EvCode = 56
	keyRightAlt   evdev.EvCode = 100
	keyLeftMeta   evdev.EvCode = 125
	keyRightMeta  evdev.EvCode = 126
)

// evdevModState tracks which of the four directional modifiers are currently
// held, separately for the left and right physical key, so its modifierSet
// method can report both the general and L/R bits per §4.1 — the same distinction
// the teacher's macOS CGEventTap flags carry natively but evdev reports as
// separate left/right keycodes.
type evdevModState struct {
	lshift, rshift     bool
	lcontrol, rcontrol bool
	lalt, ralt         bool
	lcmd, rcmd         bool
}

func (s *evdevModState) apply(code evdev.EvCode, down bool) {
	switch code {
	case keyLeftShift:
		s.lshift = down
	case keyRightShift:
		s.rshift = down
	case keyLeftCtrl:
		s.lcontrol = down
	case keyRightCtrl:
		s.rcontrol = down
	case keyLeftAlt:
		s.lalt = down
	case keyRightAlt:
		s.ralt = down
	case keyLeftMeta:
		s.lcmd = down
	case keyRightMeta:
		s.rcmd = down
	}
}

func (s *evdevModState) modifierSet() keymodel.ModifierSet {
	var m keymodel.ModifierSet
	if s.lshift {
		m |= keymodel.LShift | keymodel.Shift
	}
	if s.rshift {
		m |= keymodel.RShift | keymodel.Shift
	}
	if s.lcontrol {
		m |= keymodel.LControl | keymodel.Control
	}
	if s.rcontrol {
		m |= keymodel.RControl | keymodel.Control
	}
	if s.lalt {
		m |= keymodel.LAlt | keymodel.Alt
	}
	if s.ralt {
		m |= keymodel.RAlt | keymodel.Alt
	}
	if s.lcmd {
		m |= keymodel.LCmd | keymodel.Cmd
	}
	if s.rcmd {
		m |= keymodel.RCmd | keymodel.Cmd
	}
	return m
}

func (s *evdevModState) isModifierKey(code evdev.EvCode) bool {
	switch code {
	case keyLeftShift, keyRightShift,
		keyLeftCtrl, keyRightCtrl,
		keyLeftAlt, keyRightAlt,
		keyLeftMeta, keyRightMeta:
		return true
	default:
		return false
	}
}

// linuxAdapter implements Adapter via a raw evdev keyboard device for input
// (per the teacher's internal/hotkey/hotkey_linux.go device-discovery and
// read loop) and xdotool for both key synthesis and frontmost-window
// lookup (per the teacher's internal/clipboard/clipboard.go xdotool
// shell-out pattern).
type linuxAdapter struct {
	devicePath string
	dev        *evdev.InputDevice
	mods       evdevModState
}

// New creates the linux platform Adapter. devicePath is the evdev device to
// read from; an empty string auto-detects a keyboard the same way
// FindKeyboard did in the teacher's hotkey package.
func New(devicePath string) Adapter {
	return &linuxAdapter{devicePath: devicePath}
}

// findKeyboard opens devicePath, or auto-detects a keyboard by scanning
// /dev/input/event* for a device with EV_KEY but not EV_REL — adapted
// verbatim from the teacher's hotkey_linux.go FindKeyboard/isKeyboard.
func findKeyboard(devicePath string) (*evdev.InputDevice, error) {
	if devicePath != "" {
		dev, err := evdev.Open(devicePath)
		if err != nil {
			return nil, fmt.Errorf("open device %s: %w", devicePath, err)
		}
		return dev, nil
	}

	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})

	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if isKeyboard(dev) {
			return dev, nil
		}
		_ = dev.Close()
	}
	return nil, fmt.Errorf("no keyboard device found in /dev/input/event*")
}

func isKeyboard(dev *evdev.InputDevice) bool {
	for _, evType := range dev.CapableTypes() {
		if evType == evdev.EV_REL {
			return false
		}
	}
	keys := dev.CapableEvents(evdev.EV_KEY)
	hasA, hasZ := false, false
	for _, code := range keys {
		if code == evdev.KEY_A {
			hasA = true
		}
		if code == evdev.KEY_Z {
			hasZ = true
		}
	}
	return hasA && hasZ
}

// Run opens the keyboard device and decodes its event stream into KeyPress
// values, tracking held modifiers in evdevModState and polling the
// frontmost window on every key event (evdev carries no foreground-app
// notification of its own, unlike NSWorkspace on darwin).
func (a *linuxAdapter) Run(ctx context.Context, onKey KeyHandler, onProcChange ProcessChangeHandler) error {
	dev, err := findKeyboard(a.devicePath)
	if err != nil {
		return err
	}
	a.dev = dev
	defer dev.Close()

	errCh := make(chan error, 1)
	go func() {
		lastProcess := ""
		for {
			ev, err := dev.ReadOne()
			if err != nil {
				if strings.Contains(err.Error(), "closed") || os.IsNotExist(err) {
					errCh <- nil
					return
				}
				errCh <- fmt.Errorf("read evdev event: %w", err)
				return
			}
			if ev.Type != evdev.EV_KEY {
				continue
			}

			down := ev.Value == 1
			isRepeat := ev.Value == 2
			if !down && !isRepeat && ev.Value != 0 {
				continue
			}

			if a.mods.isModifierKey(ev.Code) {
				a.mods.apply(ev.Code, down || isRepeat)
				continue
			}
			if ev.Value == 0 {
				// Key-up of a non-modifier key: this grammar models
				// press-and-act, not press/release pairs, so only key-down
				// (and repeat) events are dispatched.
				continue
			}

			if onProcChange != nil {
				if proc, err := a.CurrentProcess(); err == nil && proc != lastProcess {
					lastProcess = proc
					onProcChange(proc)
				}
			}

			event := keymodel.KeyPress{Modifiers: a.mods.modifierSet(), Key: keymodel.KeyCode(ev.Code)}
			if onKey != nil {
				onKey(event)
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = dev.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Synthesize shells out to xdotool to post the forwarded key, following the
// teacher's clipboard.go pasteX11 pattern of driving xdotool for synthetic
// input on X11/XWayland.
func (a *linuxAdapter) Synthesize(kp keymodel.KeyPress) error {
	combo := xdotoolKeyCombo(kp)
	cmd := exec.Command("xdotool", "key", combo)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("xdotool key %s: %w", combo, err)
	}
	return nil
}

func xdotoolKeyCombo(kp keymodel.KeyPress) string {
	var parts []string
	m := kp.Modifiers
	if m.Has(keymodel.Control) || m.Has(keymodel.LControl) || m.Has(keymodel.RControl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(keymodel.Shift) || m.Has(keymodel.LShift) || m.Has(keymodel.RShift) {
		parts = append(parts, "shift")
	}
	if m.Has(keymodel.Alt) || m.Has(keymodel.LAlt) || m.Has(keymodel.RAlt) {
		parts = append(parts, "alt")
	}
	if m.Has(keymodel.Cmd) || m.Has(keymodel.LCmd) || m.Has(keymodel.RCmd) {
		parts = append(parts, "super")
	}
	parts = append(parts, strconv.Itoa(int(kp.Key)))
	return strings.Join(parts, "+")
}

// CurrentProcess shells out to xdotool to find the active window's owning
// process, then reads its command name from /proc — there is no evdev or
// kernel notion of "frontmost application" on Linux, so this has to reach
// into the window manager the way the teacher's clipboard package reaches
// into xdotool/ydotool for everything X11/Wayland-specific.
func (a *linuxAdapter) CurrentProcess() (string, error) {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowpid").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	pid := strings.TrimSpace(string(out))
	if pid == "" {
		return "", fmt.Errorf("no active window")
	}

	f, err := os.Open(filepath.Join("/proc", pid, "comm"))
	if err != nil {
		return "", fmt.Errorf("read /proc/%s/comm: %w", pid, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", fmt.Errorf("empty /proc/%s/comm", pid)
	}
	return strings.TrimSpace(scanner.Text()), nil
}
