// Command gokhd is a user-space hotkey daemon: it intercepts global
// keyboard events, matches them against a loaded mapping file, and either
// suppresses the key and runs a shell command, suppresses it and
// synthesizes a different key, or lets it pass through.
//
// main() itself is platform-specific (main_darwin.go, main_linux.go)
// because the darwin build must run under golang.design/x/mainthread so
// package platform's CGEventTap lives on the process's main OS thread;
// both just call run below.
package main

import (
	"fmt"
	"os"

	"github.com/gokhd/gokhd/internal/cli"
)

func run() {
	if err := cli.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}
}
