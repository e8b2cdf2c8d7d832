package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MemoryPath is the SQLite path of a private in-memory database.
const MemoryPath = ":memory:"

// ExpandPath resolves a database path from configuration.
// Environment variables are expanded and a leading "~" is replaced with the
// user's home directory.
//
// Example:
//
//	path: "~/.config/pmgr/pmgr.db"
//	result: "/home/alice/.config/pmgr/pmgr.db"
func ExpandPath(path string) (string, error) {
	if path == "" || path == MemoryPath {
		return path, nil
	}

	path = os.ExpandEnv(path)

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return filepath.Clean(path), nil
}
