//go:build darwin

package platform

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework AppKit -framework Carbon

#include <stdint.h>

extern int  gokhd_start_event_tap(int tapID);
extern void gokhd_stop_event_tap(int tapID);
extern void gokhd_post_key_event(uint64_t flags, int64_t keycode, int isDown);
extern char *gokhd_frontmost_process_name(void);
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.design/x/mainthread"

	"github.com/gokhd/gokhd/internal/dispatch"
	"github.com/gokhd/gokhd/internal/keymodel"
)

// cgEventFlag mirrors the CGEventFlags bits the event tap callback reports;
// these are distinct from keymodel.ModifierSet and are translated at the
// boundary by decodeModifiers, per §1's "platform adapter... feeds decoded
// (modifier_set, keycode, is_repeat) tuples into the dispatch core".
const (
	cgEventFlagAlphaShift C.uint64_t = 1 << 16
	cgEventFlagShift      C.uint64_t = 1 << 17
	cgEventFlagControl    C.uint64_t = 1 << 18
	cgEventFlagAlternate  C.uint64_t = 1 << 19
	cgEventFlagCommand    C.uint64_t = 1 << 20

	// The device-independent left/right bits CGEventTap reports in
	// addition to the general Shift/Control/Alternate/Command flags above.
	cgEventFlagLShift   C.uint64_t = 0x00000002
	cgEventFlagRShift   C.uint64_t = 0x00000004
	cgEventFlagLControl C.uint64_t = 0x00000001
	cgEventFlagRControl C.uint64_t = 0x00002000
	cgEventFlagLAlt     C.uint64_t = 0x00000020
	cgEventFlagRAlt     C.uint64_t = 0x00000040
	cgEventFlagLCmd     C.uint64_t = 0x00000008
	cgEventFlagRCmd     C.uint64_t = 0x00000010
)

// darwinAdapter implements Adapter over a CGEventTap. One darwinAdapter maps
// to one registered tap ID in the C-side registry (eventtap_darwin.m), the
// same indirection the teacher's hotkey_darwin.go uses for its listener
// registry, since cgo exported callbacks can't carry a Go closure directly.
type darwinAdapter struct {
	tapID int

	onKey        KeyHandler
	onProcChange ProcessChangeHandler

	lastProcess string
}

var (
	registryMu   sync.Mutex
	registry     = make(map[int]*darwinAdapter)
	nextTapID    int
	freedTapIDs  []int
)

// New creates the darwin platform Adapter.
func New() Adapter {
	return &darwinAdapter{}
}

func allocTapID() int {
	registryMu.Lock()
	defer registryMu.Unlock()
	if n := len(freedTapIDs); n > 0 {
		id := freedTapIDs[n-1]
		freedTapIDs = freedTapIDs[:n-1]
		return id
	}
	id := nextTapID
	nextTapID++
	return id
}

func freeTapID(id int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	freedTapIDs = append(freedTapIDs, id)
}

// Run creates the event tap and blocks on the CFRunLoop until ctx is
// canceled. Per §1/§5, CGEventTapCreate and the CFRunLoop it's attached to
// must live on the process's main OS thread; cmd/gokhd's darwin entry point
// arranges this by calling mainthread.Init and running the rest of the
// program inside it, so mainthread.Call here actually lands on that
// locked thread rather than whatever thread happens to be running this
// goroutine.
func (a *darwinAdapter) Run(ctx context.Context, onKey KeyHandler, onProcChange ProcessChangeHandler) error {
	a.onKey = onKey
	a.onProcChange = onProcChange
	a.tapID = allocTapID()

	registryMu.Lock()
	registry[a.tapID] = a
	registryMu.Unlock()

	defer func() {
		registryMu.Lock()
		delete(registry, a.tapID)
		registryMu.Unlock()
		freeTapID(a.tapID)
	}()

	go func() {
		<-ctx.Done()
		C.gokhd_stop_event_tap(C.int(a.tapID))
	}()

	var ret C.int
	mainthread.Call(func() {
		ret = C.gokhd_start_event_tap(C.int(a.tapID))
	})
	if ret != 0 {
		return fmt.Errorf("failed to create event tap (grant Input Monitoring permission in System Settings > Privacy & Security > Input Monitoring)")
	}
	return ctx.Err()
}

// Synthesize posts a key down+up pair carrying kp's keycode and modifiers,
// per §3's ProcessCommand.Forwarded.
func (a *darwinAdapter) Synthesize(kp keymodel.KeyPress) error {
	flags := encodeModifiers(kp.Modifiers)
	C.gokhd_post_key_event(flags, C.int64_t(kp.Key), 1)
	C.gokhd_post_key_event(flags, C.int64_t(kp.Key), 0)
	return nil
}

// CurrentProcess returns NSWorkspace's frontmost application name.
func (a *darwinAdapter) CurrentProcess() (string, error) {
	cstr := C.gokhd_frontmost_process_name()
	if cstr == nil {
		return "", fmt.Errorf("no frontmost application")
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), nil
}

// decodeModifiers translates CGEventFlags into keymodel's ModifierSet,
// preserving both the general and the left/right bits per §4.1 so the
// dispatcher's RuleMatches can apply the L/R equivalence rule.
func decodeModifiers(flags C.uint64_t) keymodel.ModifierSet {
	var m keymodel.ModifierSet
	if flags&cgEventFlagShift != 0 {
		m |= keymodel.Shift
	}
	if flags&cgEventFlagControl != 0 {
		m |= keymodel.Control
	}
	if flags&cgEventFlagAlternate != 0 {
		m |= keymodel.Alt
	}
	if flags&cgEventFlagCommand != 0 {
		m |= keymodel.Cmd
	}
	if flags&cgEventFlagLShift != 0 {
		m |= keymodel.LShift
	}
	if flags&cgEventFlagRShift != 0 {
		m |= keymodel.RShift
	}
	if flags&cgEventFlagLControl != 0 {
		m |= keymodel.LControl
	}
	if flags&cgEventFlagRControl != 0 {
		m |= keymodel.RControl
	}
	if flags&cgEventFlagLAlt != 0 {
		m |= keymodel.LAlt
	}
	if flags&cgEventFlagRAlt != 0 {
		m |= keymodel.RAlt
	}
	if flags&cgEventFlagLCmd != 0 {
		m |= keymodel.LCmd
	}
	if flags&cgEventFlagRCmd != 0 {
		m |= keymodel.RCmd
	}
	return m
}

// encodeModifiers builds the CGEventFlags a forwarded key press should
// carry, for Synthesize. It is not an exact inverse of decodeModifiers: it
// sets only the general shift/control/alt/command flags, so left/right
// distinctions and Fn/NX are not carried over.
func encodeModifiers(m keymodel.ModifierSet) C.uint64_t {
	var flags C.uint64_t
	if m.Has(keymodel.Shift) || m.Has(keymodel.LShift) || m.Has(keymodel.RShift) {
		flags |= cgEventFlagShift
	}
	if m.Has(keymodel.Control) || m.Has(keymodel.LControl) || m.Has(keymodel.RControl) {
		flags |= cgEventFlagControl
	}
	if m.Has(keymodel.Alt) || m.Has(keymodel.LAlt) || m.Has(keymodel.RAlt) {
		flags |= cgEventFlagAlternate
	}
	if m.Has(keymodel.Cmd) || m.Has(keymodel.LCmd) || m.Has(keymodel.RCmd) {
		flags |= cgEventFlagCommand
	}
	return flags
}

//export gokhdEventTapCallback
func gokhdEventTapCallback(tapID C.int, eventType C.int, keycode C.int64_t, flags C.uint64_t, isRepeat C.int) C.int {
	registryMu.Lock()
	a, ok := registry[int(tapID)]
	registryMu.Unlock()
	if !ok || a.onKey == nil {
		return 1 // pass the event through untouched
	}

	event := keymodel.KeyPress{Modifiers: decodeModifiers(flags), Key: keymodel.KeyCode(keycode)}
	disp := a.onKey(event)

	switch disp.Kind {
	case dispatch.Swallow, dispatch.Shell, dispatch.Forward, dispatch.ActivateModeKind:
		return 0 // suppress
	default:
		return 1 // let through
	}
}

//export gokhdFrontAppChanged
func gokhdFrontAppChanged(tapID C.int, name *C.char) {
	registryMu.Lock()
	a, ok := registry[int(tapID)]
	registryMu.Unlock()
	if !ok || a.onProcChange == nil {
		return
	}
	a.onProcChange(C.GoString(name))
}
