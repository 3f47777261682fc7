//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the dirsync configuration directory.
const HomeEnv = "DIRSYNC_HOME"

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ConfigDir returns the dirsync configuration directory: $DIRSYNC_HOME if set,
// otherwise ~/.config/dirsync.
func ConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandPath(dir, "")
	}
	return filepath.Join(HomeDir(), ".config", "dirsync")
}

// ExpandPath expands a leading ~ to the home directory and makes relative
// paths absolute against baseDir (the working directory when baseDir is empty).
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		path = filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if baseDir == "" {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// IsWithin reports whether path equals root or lies below it. Both paths
// must be absolute and clean.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
