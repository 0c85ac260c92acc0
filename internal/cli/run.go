package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gokhd/gokhd/internal/core"
	"github.com/gokhd/gokhd/internal/dispatch"
	"github.com/gokhd/gokhd/internal/keymodel"
	"github.com/gokhd/gokhd/internal/parser"
	"github.com/gokhd/gokhd/internal/platform"
	"github.com/gokhd/gokhd/internal/reload"
	"github.com/gokhd/gokhd/internal/shellexec"
)

var (
	debugFlag  bool
	deviceFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the hotkey daemon",
	Long: `run loads the mapping file, opens the platform event tap, and dispatches
every key event through package dispatch until interrupted. SIGHUP forces a
mapping reload (in addition to the fsnotify watch, when enabled); SIGINT and
SIGTERM shut the daemon down cleanly.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging to stderr")
	runCmd.Flags().StringVar(&deviceFlag, "device", "", "linux only: evdev device path (default: auto-detect a keyboard)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadDaemonConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mapPath := resolveMappingPath(cfg)

	var dbg *log.Logger
	if debugFlag || cfg.Log.Debug {
		dbg = log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	executor := shellexec.New(dbg)

	var cl *core.CoreLoop
	var watcher *reload.Watcher

	if cfg.Reload.Enabled {
		watcher, err = reload.New(mapPath, time.Duration(cfg.Reload.DebounceMs)*time.Millisecond, nil, dbg)
		if err != nil {
			return fmt.Errorf("create reload watcher: %w", err)
		}
		m, err := watcher.LoadInitial()
		if err != nil {
			return fmt.Errorf("load %s: %w", mapPath, err)
		}
		cl = core.New(m)
		watcher.SetSwap(cl.SwapMappings)
		if err := watcher.Watch(m); err != nil {
			return fmt.Errorf("watch %s: %w", mapPath, err)
		}
		defer watcher.Stop()
	} else {
		m, err := parser.Load(mapPath, nil)
		if err != nil {
			return fmt.Errorf("load %s: %w", mapPath, err)
		}
		cl = core.New(m)
	}

	adapter := newAdapter(deviceFlag)

	pidPath := pidFilePath(cfg.SocketPath)
	if err := writePIDFile(pidPath); err != nil {
		dbg.Printf("run: writing pid file: %v", err)
	} else {
		defer os.Remove(pidPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				dbg.Printf("run: SIGHUP, reloading %s", mapPath)
				if watcher != nil {
					watcher.TriggerReload()
					continue
				}
				m, err := parser.Load(mapPath, nil)
				if err != nil {
					dbg.Printf("run: reload failed: %v", err)
					continue
				}
				cl.SwapMappings(m)
			default:
				dbg.Printf("run: received %s, shutting down", sig)
				cancel()
				return
			}
		}
	}()

	onKey := func(ev keymodel.KeyPress) dispatch.Disposition {
		d := cl.OnKeyEvent(ev)
		runDispositionEffects(d, cl.Shell(), adapter, executor)
		return d
	}

	return adapter.Run(ctx, onKey, cl.OnProcessChanged)
}

// runDispositionEffects performs the side effects a Disposition calls for
// that package dispatch itself never does (§4.6/§4.7 keep Dispatch and
// OnKeyEvent pure/allocation-free): synthesizing a forwarded key and
// spawning shell commands detached. shell is the configured shell path to
// run commands with.
func runDispositionEffects(d dispatch.Disposition, shell string, adapter platform.Adapter, executor *shellexec.Executor) {
	switch d.Kind {
	case dispatch.Shell:
		executor.SpawnDetached(shell, d.ShellCmd)
	case dispatch.Passthrough:
		if d.HasShellCmd {
			executor.SpawnDetached(shell, d.ShellCmd)
		}
	case dispatch.Forward:
		if err := adapter.Synthesize(d.ForwardTo); err != nil {
			log.Printf("run: synthesize %v: %v", d.ForwardTo, err)
		}
	case dispatch.ActivateModeKind:
		for _, c := range d.OnEnterCommands {
			executor.SpawnDetached(shell, c)
		}
	}
}
