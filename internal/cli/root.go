// Package cli provides gokhd's command-line surface: the `run`, `check`,
// `reload`, and `modes` subcommands, built with github.com/spf13/cobra
// exactly as the pack's multi-subcommand daemon (Iron-Ham-claudio) is,
// while keeping BurntSushi/toml (not viper) as the config file codec per
// the teacher. Everything outside this package is the core the spec
// describes (package token/parser/mappings/dispatch/core) plus the
// platform collaborators §6 names; this package only wires them together
// and handles process-level concerns (flags, logging, signals, PID file).
package cli

import (
	"github.com/spf13/cobra"
)

var cfgPath string
var mappingPath string

var rootCmd = &cobra.Command{
	Use:   "gokhd",
	Short: "A hotkey daemon driven by a gokhdrc mapping file",
	Long: `gokhd intercepts global keyboard events, matches them against a
mapping file written in a small hotkey DSL (modes, process-specific
bindings, process groups, command templates), and either runs a shell
command, forwards a different key, or lets the key through.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "daemon config file (default ~/.config/gokhd/gokhd.toml)")
	rootCmd.PersistentFlags().StringVar(&mappingPath, "mapping", "", "hotkey mapping file (overrides the config file's config_file setting)")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// Execute runs the root command, dispatching to whichever subcommand the
// user invoked.
func Execute() error {
	return rootCmd.Execute()
}
