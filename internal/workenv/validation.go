package workenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/provide-io/ptot/pkg/utils/permissions"
)

const markerName = ".ptot.inuse"

// UsageMarker records which process owns a scratch directory.
type UsageMarker struct {
	Timestamp time.Time `json:"timestamp"`
	PID       int       `json:"pid"`
}

// MarkInUse writes the ownership marker into a scratch directory.
func MarkInUse(dir string) error {
	marker := UsageMarker{
		Timestamp: time.Now().UTC(),
		PID:       os.Getpid(),
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, markerName), data, permissions.DefaultScratchPerms)
}

// IsStale reports whether a scratch directory was left behind by a
// conversion that never cleaned up: its marker is missing, unreadable, or
// older than maxAge.
func IsStale(dir string, maxAge time.Duration) bool {
	data, err := os.ReadFile(filepath.Join(dir, markerName))
	if err != nil {
		return true
	}

	var marker UsageMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return true
	}

	return time.Since(marker.Timestamp) > maxAge
}

// CleanStale removes abandoned scratch directories under root and returns
// how many were removed.
func CleanStale(root string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "conv-") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if !IsStale(dir, maxAge) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
