package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gokhd/gokhd/internal/parser"
)

var (
	checkOKStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#64FFDA"))
	checkFailStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8A80"))
	checkDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse a mapping file and report errors or a summary",
	Long: `check loads a mapping file (following its .load directives) exactly as
run would, then reports either the parse error (rendered path:line:col:
message per §7) or a summary of what loaded: mode count, hotkey count, and
every file that was read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path, err := mappingPathFromArgsOrConfig(args)
	if err != nil {
		return err
	}

	m, loadErr := parser.Load(path, nil)
	if loadErr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), checkFailStyle.Render("✗ "+loadErr.Error()))
		return errSilentExit{}
	}

	fmt.Fprintln(cmd.OutOrStdout(), checkOKStyle.Render(fmt.Sprintf("✓ %s loaded cleanly", path)))
	fmt.Fprintf(cmd.OutOrStdout(), "  modes:   %d (%v)\n", len(m.ModeNames()), m.ModeNames())
	fmt.Fprintf(cmd.OutOrStdout(), "  hotkeys: %d\n", m.HotkeyCount())
	fmt.Fprintf(cmd.OutOrStdout(), "  shell:   %s\n", m.Shell())
	fmt.Fprintln(cmd.OutOrStdout(), checkDimStyle.Render("  files:"))
	for _, f := range m.LoadedFiles() {
		fmt.Fprintln(cmd.OutOrStdout(), checkDimStyle.Render("    "+f))
	}
	return nil
}

// mappingPathFromArgsOrConfig resolves the mapping file check should parse:
// a positional argument, or else --mapping/the daemon config's
// config_file, loading the daemon config only when needed.
func mappingPathFromArgsOrConfig(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if mappingPath != "" {
		return mappingPath, nil
	}
	cfg, err := loadDaemonConfig()
	if err != nil {
		return "", err
	}
	return cfg.ConfigFile, nil
}

// errSilentExit signals cobra to exit non-zero without printing the error
// a second time (runCheck already rendered it with checkFailStyle).
type errSilentExit struct{}

func (errSilentExit) Error() string { return "" }
