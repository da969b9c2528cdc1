// Package workenv locates and prepares the directories used for scratch
// storage during a conversion.
package workenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/provide-io/ptot/pkg/utils/permissions"
)

// GetScratchRoot returns the directory under which per-conversion scratch
// directories are created.
func GetScratchRoot() string {
	// Check environment variable first
	if dir := os.Getenv("PTOT_SCRATCH_DIR"); dir != "" {
		return dir
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "ptot")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "ptot")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "ptot")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "ptot", "scratch")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "ptot")
}

// CreateScratchDir creates a fresh, uniquely named scratch directory under
// root and marks it as owned by this process.
func CreateScratchDir(root string) (string, error) {
	if err := os.MkdirAll(root, permissions.DefaultDirPerms); err != nil {
		return "", fmt.Errorf("failed to create scratch root: %w", err)
	}

	dir, err := os.MkdirTemp(root, "conv-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	if err := MarkInUse(dir); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}
