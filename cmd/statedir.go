package rootcmd

import (
	"os"
	"path/filepath"
)

// StateDir returns the state directory for the named program:
// DIAMOND_STATE_DIR, then the systemd STATE_DIRECTORY, then a directory
// under the user config dir.
func StateDir(name string) (string, error) {
	if dir := os.Getenv("DIAMOND_STATE_DIR"); dir != "" {
		return dir, nil
	}
	if dir := os.Getenv("STATE_DIRECTORY"); dir != "" {
		return dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
