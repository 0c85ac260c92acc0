// Package shellexec runs hotkey shell commands detached from the daemon, so
// the hot path (package core, package dispatch) never blocks on or owns a
// child process. Per §5 and §6's ShellExecutor interface, a spawned command
// must leave no process-table residue in the daemon: SpawnDetached puts the child in
// its own session (Setsid) and reaps it from a background goroutine rather
// than the caller's, mirroring the detached-process pattern the teacher uses
// for its own background helpers (ydotoold in internal/clipboard/clipboard.go,
// Setpgid there since that helper outlives the whole daemon run; Setsid here
// since a hotkey command should survive the daemon being killed too).
package shellexec

import (
	"log"
	"os/exec"
	"syscall"
)

// Executor runs shell commands detached from the calling process, per §6's
// `ShellExecutor.spawn_detached(shell_path, command)`.
type Executor struct {
	Logger *log.Logger
}

// New creates an Executor that logs spawn failures to logger. A nil logger
// is replaced with log.Default().
func New(logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{Logger: logger}
}

// SpawnDetached runs command via shellPath -c, detached: it does not block
// the caller beyond process creation, and it does not propagate the child's
// exit status anywhere the dispatcher could observe — per §4.7/§7, shell
// failures are logged only and never alter dispatch state.
func (e *Executor) SpawnDetached(shellPath, command string) {
	cmd := exec.Command(shellPath, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		e.Logger.Printf("shellexec: spawn %q: %v", command, err)
		return
	}

	// Reap in the background so the child never lingers as a zombie; this
	// goroutine, not the hot path, pays for the wait.
	go func(c *exec.Cmd, command string) {
		if err := c.Wait(); err != nil {
			e.Logger.Printf("shellexec: %q: %v", command, err)
		}
	}(cmd, command)
}
