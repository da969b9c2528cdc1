package pkg

import (
	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/logging"
	"github.com/provide-io/ptot/pkg/ptot/convert"
)

// ConvertFile converts a PNG file to TIFF using the environment's settings.
func ConvertFile(inputPath, outputPath string) (*convert.Result, error) {
	return ConvertFileWithLogLevel(inputPath, outputPath, "")
}

// ConvertFileWithLogLevel converts a PNG file to TIFF, overriding the log
// level when logLevel is not empty.
func ConvertFileWithLogLevel(inputPath, outputPath, logLevel string) (*convert.Result, error) {
	opts := convert.OptionsFromEnv()
	opts.Logger = newLogger(logLevel)
	return ConvertFileWithOptions(inputPath, outputPath, opts)
}

// ConvertFileWithOptions converts a file with explicit options.
func ConvertFileWithOptions(inputPath, outputPath string, opts convert.Options) (*convert.Result, error) {
	conv, err := convert.New(opts)
	if err != nil {
		return nil, err
	}
	return conv.ConvertFile(inputPath, outputPath)
}

func newLogger(logLevel string) hclog.Logger {
	if logLevel == "" {
		logLevel = logging.GetLogLevel()
	}
	return logging.NewLogger("ptot", logLevel, logging.GetLogOutput())
}
