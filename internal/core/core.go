// Package core owns the hot path: CoreLoop receives decoded key events and
// foreground-process changes from a platform adapter, consults package
// dispatch against the currently published Mappings, and tracks the single
// piece of mutable runtime state the daemon has — the active mode cursor.
package core

import (
	"sync/atomic"

	"github.com/gokhd/gokhd/internal/dispatch"
	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
)

// currentProcessMaxLen mirrors the per-process lookup cutoff in package
// mappings: a frontmost-process name longer than this is truncated rather
// than grown, so on_process_changed never allocates.
const currentProcessMaxLen = 256

// CoreLoop is the single-threaded hot-path driver. All of its methods are
// called from the platform adapter's event-delivery thread and are never
// re-entrant; the only cross-thread interaction is SwapMappings, which a
// reloader on its own goroutine uses to publish a freshly parsed Mappings.
type CoreLoop struct {
	mappings atomic.Pointer[mappings.Mappings]
	mode     mappings.ModeRef

	currentProcess    [currentProcessMaxLen]byte
	currentProcessLen int
}

// New creates a CoreLoop publishing m, with the mode cursor at m's default
// mode.
func New(m *mappings.Mappings) *CoreLoop {
	cl := &CoreLoop{mode: m.DefaultModeRef()}
	cl.mappings.Store(m)
	return cl
}

// current returns the published Mappings (acquire-ordered read).
func (cl *CoreLoop) current() *mappings.Mappings {
	return cl.mappings.Load()
}

// OnProcessChanged caches the new frontmost process name into a fixed
// buffer; names longer than currentProcessMaxLen are truncated to that
// length. No overflow flag is kept: dispatch sees the truncated name, so it
// can match a per-process or blacklist entry equal to the name's first
// currentProcessMaxLen bytes rather than falling back to the wildcard.
func (cl *CoreLoop) OnProcessChanged(name string) {
	n := copy(cl.currentProcess[:], name)
	cl.currentProcessLen = n
}

// currentProcessName returns the cached frontmost process name as a string.
// The conversion allocates (Go strings are immutable, unlike a C-style
// stack buffer); on_key_event is otherwise allocation-free.
func (cl *CoreLoop) currentProcessName() string {
	return string(cl.currentProcess[:cl.currentProcessLen])
}

// OnKeyEvent is the hot-path entry point: consult the dispatcher against
// the published Mappings and the current mode cursor, advance the mode
// cursor on ActivateMode, and return the Disposition for the platform
// adapter to act on.
func (cl *CoreLoop) OnKeyEvent(event keymodel.KeyPress) dispatch.Disposition {
	m := cl.current()
	d := dispatch.Dispatch(m, cl.mode, event, cl.currentProcessName())
	if d.Kind == dispatch.ActivateModeKind {
		if ref, ok := m.ModeByName(d.TargetMode); ok {
			cl.mode = ref
		}
	}
	return d
}

// SwapMappings atomically publishes new as the Mappings future calls to
// OnKeyEvent consult. If the current mode's name doesn't exist in new (the
// reload dropped or renamed it), the cursor resets to new's default mode.
func (cl *CoreLoop) SwapMappings(new *mappings.Mappings) {
	old := cl.current()
	currentName := ""
	if int(cl.mode) < len(old.ModeNames()) {
		currentName = old.Mode(cl.mode).Name
	}
	cl.mappings.Store(new)
	if _, ok := new.ModeByName(currentName); !ok {
		cl.mode = new.DefaultModeRef()
	}
}

// Mode returns the current mode cursor, for diagnostics/TUI use.
func (cl *CoreLoop) Mode() mappings.ModeRef { return cl.mode }

// Shell returns the shell path configured on the currently published
// Mappings, so a caller spawning commands always honors the most recent
// reload's `.shell` directive.
func (cl *CoreLoop) Shell() string { return cl.current().Shell() }
