package convert

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/inflate"
	"github.com/provide-io/ptot/pkg/ptot/tiff"
	"github.com/provide-io/ptot/pkg/utils/permissions"
)

// Output formats.
const (
	FormatTIFF = "tiff"
	FormatPPM  = "ppm"
)

// Scratch backends.
const (
	ScratchFile   = "file"
	ScratchMemory = "memory"
	ScratchZstd   = "zstd"
)

// StaleScratchAge is how old an abandoned scratch directory must be before
// it is cleaned up.
const StaleScratchAge = 24 * time.Hour

// Options configures a Converter.
type Options struct {
	Format     string      // FormatTIFF or FormatPPM
	Scratch    string      // ScratchFile, ScratchMemory or ScratchZstd
	ScratchDir string      // root for file scratch; empty selects workenv.GetScratchRoot
	Inflater   string      // inflate registry name
	ByteOrder  string      // TIFF byte order: host, little or big
	CleanStale bool        // remove abandoned scratch directories first
	OutputMode os.FileMode // permissions of a created output file
	Logger     hclog.Logger
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Format:     FormatTIFF,
		Scratch:    ScratchFile,
		Inflater:   inflate.DefaultName,
		ByteOrder:  tiff.OrderHost,
		CleanStale: true,
		OutputMode: permissions.DefaultOutputPerms,
	}
}

// OptionsFromEnv returns the defaults overridden by PTOT_FORMAT,
// PTOT_SCRATCH, PTOT_SCRATCH_DIR, PTOT_INFLATER, PTOT_BYTE_ORDER and
// PTOT_OUTPUT_MODE. An unparsable mode keeps the default.
func OptionsFromEnv() Options {
	opts := DefaultOptions()
	if v := os.Getenv("PTOT_FORMAT"); v != "" {
		opts.Format = strings.ToLower(v)
	}
	if v := os.Getenv("PTOT_SCRATCH"); v != "" {
		opts.Scratch = strings.ToLower(v)
	}
	if v := os.Getenv("PTOT_SCRATCH_DIR"); v != "" {
		opts.ScratchDir = v
	}
	if v := os.Getenv("PTOT_INFLATER"); v != "" {
		opts.Inflater = v
	}
	if v := os.Getenv("PTOT_BYTE_ORDER"); v != "" {
		opts.ByteOrder = v
	}
	if v := os.Getenv("PTOT_OUTPUT_MODE"); v != "" {
		if mode, err := permissions.ParseOctalString(v); err == nil {
			opts.OutputMode = mode
		}
	}
	return opts
}

// Validate checks the option values.
func (o Options) Validate() error {
	switch o.Format {
	case FormatTIFF, FormatPPM:
	default:
		return fmt.Errorf("%w: format %q", perrors.ErrInvalidOption, o.Format)
	}
	switch o.Scratch {
	case ScratchFile, ScratchMemory, ScratchZstd:
	default:
		return fmt.Errorf("%w: scratch %q", perrors.ErrInvalidOption, o.Scratch)
	}
	if _, err := tiff.ParseByteOrder(o.ByteOrder); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidOption, err)
	}
	if o.OutputMode&^os.ModePerm != 0 {
		return fmt.Errorf("%w: output mode %s", perrors.ErrInvalidOption, o.OutputMode)
	}
	if !permissions.IsOwnerWritable(o.OutputMode) {
		return fmt.Errorf("%w: output mode %s is not writable by its owner",
			perrors.ErrInvalidOption, permissions.FormatOctal(o.OutputMode))
	}
	if _, err := inflate.Get(o.Inflater); err != nil {
		return err
	}
	return nil
}
