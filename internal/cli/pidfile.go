package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// pidFilePath derives the daemon's PID file path from its socket path
// (same directory, `.pid` instead of `.sock`), so `run` and `reload` agree
// on where to find each other without a separate config field.
func pidFilePath(socketPath string) string {
	dir := filepath.Dir(socketPath)
	base := strings.TrimSuffix(filepath.Base(socketPath), filepath.Ext(socketPath))
	return filepath.Join(dir, base+".pid")
}

// writePIDFile records the current process's PID, creating parent
// directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// readPIDFile reads back a PID previously written by writePIDFile.
func readPIDFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parsing PID file %s: %w", path, err)
	}
	return pid, nil
}
