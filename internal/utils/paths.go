package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the per-user directory for cookies, stash and logs.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Local", "hydratutor"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "hydratutor"), nil
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "hydratutor"), nil
		}
		return filepath.Join(homeDir, ".local", "share", "hydratutor"), nil
	}
}
