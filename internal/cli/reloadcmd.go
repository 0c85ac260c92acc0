package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Send SIGHUP to the running daemon to reload its mapping file",
	Long: `reload finds the running daemon's PID (written by run at startup next to
its socket path) and sends it SIGHUP. The daemon re-parses its mapping file
and, on success, atomically swaps in the new Mappings; a parse error leaves
the daemon running on its previous Mappings (§7).`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	cfg, err := loadDaemonConfig()
	if err != nil {
		return err
	}
	pid, err := readPIDFile(pidFilePath(cfg.SocketPath))
	if err != nil {
		return fmt.Errorf("is gokhd running? %w", err)
	}
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent SIGHUP to pid %d\n", pid)
	return nil
}
