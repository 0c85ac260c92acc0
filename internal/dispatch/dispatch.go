// Package dispatch implements the pure, allocation-free decision function
// that turns a key event into a Disposition: given the current Mappings, a
// mode cursor, the event, and the frontmost process name, decide whether to
// swallow the key, run a shell command, forward a synthesized key, let the
// original event through, or switch modes.
package dispatch

import (
	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/mappings"
)

// Kind tags the variant carried by a Disposition.
type Kind int

const (
	// Swallow suppresses the event and does nothing else.
	Swallow Kind = iota
	// Shell suppresses the event and runs ShellCmd.
	Shell
	// Forward suppresses the event and synthesizes ForwardTo.
	Forward
	// Passthrough does not suppress the event; if HasShellCmd, ShellCmd also runs.
	Passthrough
	// ActivateModeKind suppresses the event and switches the mode cursor to
	// TargetMode, scheduling OnEnterCommands (hotkey's, then the target
	// mode's, per §9's on-enter ordering decision) if any are present.
	ActivateModeKind
	// LetThrough passes the event to the OS: no rule matched and the mode
	// isn't capturing.
	LetThrough
)

// Disposition is the outcome Dispatch returns; CoreLoop acts on it via the
// platform adapter and shell executor.
type Disposition struct {
	Kind            Kind
	ShellCmd        string
	HasShellCmd     bool
	ForwardTo       keymodel.KeyPress
	TargetMode      string
	OnEnterCommands []string
}

// Dispatch implements §4.6's algorithm. Besides the OnEnterCommands slice
// built on the ActivateMode path, its only allocation is the lowercased copy
// of currentProcess that the blacklist and per-process lookups make: short
// names stay off the heap, longer ones (e.g. a 39-byte name) cost one heap
// allocation per lookup.
func Dispatch(m *mappings.Mappings, modeCursor mappings.ModeRef, event keymodel.KeyPress, currentProcess string) Disposition {
	if m.Blacklisted(currentProcess) {
		return Disposition{Kind: LetThrough}
	}

	ref, ok := m.Lookup(modeCursor, event)
	if !ok {
		if m.Mode(modeCursor).Capture {
			return Disposition{Kind: Swallow}
		}
		return Disposition{Kind: LetThrough}
	}

	hk := m.Hotkey(ref)
	pc := hk.FindCommandForProcess(currentProcess)

	switch pc.Kind {
	case mappings.Unbound:
		return Disposition{Kind: LetThrough}

	case mappings.ActivateMode:
		var onEnter []string
		if pc.OnEnterCmd != "" {
			onEnter = append(onEnter, pc.OnEnterCmd)
		}
		if targetRef, ok := m.ModeByName(pc.Text); ok {
			if cmd := m.Mode(targetRef).OnEnterCommand; cmd != "" {
				onEnter = append(onEnter, cmd)
			}
		}
		return Disposition{Kind: ActivateModeKind, TargetMode: pc.Text, OnEnterCommands: onEnter}

	case mappings.Forward:
		return Disposition{Kind: Forward, ForwardTo: pc.ForwardTo}

	case mappings.Shell:
		if hk.Passthrough {
			return Disposition{Kind: Passthrough, ShellCmd: pc.Text, HasShellCmd: true}
		}
		return Disposition{Kind: Shell, ShellCmd: pc.Text}

	default:
		return Disposition{Kind: LetThrough}
	}
}
