package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gokhd/gokhd/internal/parser"
	"github.com/gokhd/gokhd/internal/tui"
)

var modesCmd = &cobra.Command{
	Use:   "modes [file]",
	Short: "Browse a mapping file's modes and hotkeys",
	Long: `modes loads a mapping file and opens a read-only Bubble Tea browser over
it: arrow keys switch between modes and hotkeys, q quits. It never touches a
running daemon — it's a way to inspect what a mapping file resolved to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModes,
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, args []string) error {
	path, err := mappingPathFromArgsOrConfig(args)
	if err != nil {
		return err
	}
	m, err := parser.Load(path, nil)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	_, err = tea.NewProgram(tui.NewModel(m), tea.WithAltScreen()).Run()
	return err
}
