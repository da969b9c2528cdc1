package pkg

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/ptot/convert"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// CheckFileWithLogger decodes a PNG file without writing any output and
// logs each integrity finding.
func CheckFileWithLogger(inputPath string, logger hclog.Logger) (*convert.Result, error) {
	opts := convert.OptionsFromEnv()
	opts.Logger = logger
	conv, err := convert.New(opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrRead, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Debug("Failed to close input", "error", err)
		}
	}()

	logger.Info("Checking PNG integrity", "path", inputPath)

	res, err := conv.Check(f)
	if err != nil {
		logger.Error("✗ Check failed", "path", inputPath, "error", err)
		return res, err
	}

	if len(res.Warnings) == 0 {
		logger.Info("✓ Check passed", "path", inputPath)
	} else {
		logger.Warn("✗ Check found problems", "path", inputPath, "warning_count", len(res.Warnings))
		for _, w := range res.Warnings {
			logger.Warn("  Integrity warning", "details", w.String())
		}
	}
	return res, nil
}

// CheckFile checks a PNG file using default logger settings.
func CheckFile(inputPath string) (*convert.Result, error) {
	return CheckFileWithLogger(inputPath, newLogger(""))
}
