package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
)

// NewLogger creates a new hclog logger with standard settings.
//
// level may carry a "json:" prefix (e.g. "json:debug") to force JSON output,
// the same convention the PTOT_LOG_LEVEL variable accepts.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	// Determine if JSON format should be used
	jsonFormat := os.Getenv("PTOT_JSON_LOG") == "1"
	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		if parts := strings.SplitN(level, ":", 2); len(parts) == 2 {
			level = parts[1]
		} else {
			level = "info"
		}
	}

	color := hclog.ColorOff
	if !jsonFormat && isTerminal(output) {
		color = hclog.AutoColor
	}

	// Add prefix for non-JSON output
	if !jsonFormat {
		output = NewPrefixWriter("🖼  ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		Color:      color,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv("PTOT_LOG_LEVEL")
	if level == "" {
		level = "warn" // Warnings are the converter's normal diagnostic channel
	}
	return level
}

// GetLogOutput returns the log destination: PTOT_LOG_PATH when it can be
// opened for appending, stderr otherwise.
func GetLogOutput() io.Writer {
	if logPath := os.Getenv("PTOT_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			return file
		}
	}
	return os.Stderr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
