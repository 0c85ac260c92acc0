// Package platform defines the collaborator interfaces §6 names as external
// to the core (event-tap integration, foreground-process tracking) and
// provides the darwin and linux adapters that implement them. Package core
// depends only on these interfaces; swapping platform_darwin.go for
// platform_linux.go is the only thing that changes between build targets.
package platform

import (
	"context"

	"github.com/gokhd/gokhd/internal/dispatch"
	"github.com/gokhd/gokhd/internal/keymodel"
)

// KeyHandler receives a decoded key event and returns the Disposition the
// core decided on. This is CoreLoop.OnKeyEvent's signature exactly; the
// cli's run command passes a wrapper around it that also performs the side
// effects (key synthesis for ForwardTo, shell spawning for ShellCmd and
// on-enter commands). The adapter itself only uses the Disposition's Kind to
// decide whether to suppress the original event; the linux adapter reads the
// device without grabbing it and never suppresses.
type KeyHandler func(keymodel.KeyPress) dispatch.Disposition

// ProcessChangeHandler receives the new frontmost process name. This is
// CoreLoop.OnProcessChanged's signature exactly.
type ProcessChangeHandler func(name string)

// Adapter is the platform event-tap integration §1 calls out as external to
// the core: it decodes raw OS events into KeyPress values, delivers
// foreground-process changes, and can synthesize a key event back out.
// Run blocks, delivering events to onKey/onProcessChange, until ctx is
// canceled or an unrecoverable platform error occurs.
type Adapter interface {
	Run(ctx context.Context, onKey KeyHandler, onProcessChange ProcessChangeHandler) error
	Synthesize(kp keymodel.KeyPress) error
	CurrentProcess() (string, error)
}
