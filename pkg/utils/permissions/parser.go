// Package permissions parses and formats the file modes used for output and
// scratch files.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default modes. Scratch data is private to the converting user; output
// follows the usual umask-filtered file default.
const (
	DefaultOutputPerms  os.FileMode = 0o644
	DefaultScratchPerms os.FileMode = 0o600
	DefaultDirPerms     os.FileMode = 0o700
)

// ParseOctalString parses an octal permission string such as "644", "0644"
// or "0o644". The empty string yields DefaultOutputPerms.
func ParseOctalString(s string) (os.FileMode, error) {
	if s == "" {
		return DefaultOutputPerms, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		return 0, nil
	}

	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return DefaultOutputPerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultOutputPerms, fmt.Errorf("invalid permission string %q: only permission bits allowed", s)
	}

	return os.FileMode(val), nil
}

// FormatOctal formats a mode's permission bits as an octal string.
func FormatOctal(mode os.FileMode) string {
	return fmt.Sprintf("0%o", mode.Perm())
}

// IsOwnerWritable reports whether the owner may write a file with mode.
func IsOwnerWritable(mode os.FileMode) bool {
	return mode&0o200 != 0
}
