// Package convert runs the PNG to TIFF (or PPM) pipeline: decode the PNG
// into scratch storage, encode the result, then discard the scratch data.
package convert

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/internal/workenv"
	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/inflate"
	"github.com/provide-io/ptot/pkg/ptot/png"
	"github.com/provide-io/ptot/pkg/ptot/ppm"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
	"github.com/provide-io/ptot/pkg/ptot/tiff"
)

// Result summarises a conversion.
type Result struct {
	Format           string
	Width            uint32
	Height           uint32
	BitDepth         int
	SamplesPerPixel  int
	Interlaced       bool
	PassthroughBytes int64
	Tags             int // TIFF directory entries written
	Warnings         []diag.Warning
}

// Converter converts PNG streams. Each call to Convert is independent and
// owns its scratch storage; a Converter may be reused but not shared
// between goroutines.
type Converter struct {
	opts     Options
	logger   hclog.Logger
	inflater inflate.Decompressor
	order    binary.ByteOrder
}

// New creates a Converter from validated options.
func New(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	inflater, err := inflate.Get(opts.Inflater)
	if err != nil {
		return nil, err
	}
	order, err := tiff.ParseByteOrder(opts.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidOption, err)
	}

	return &Converter{
		opts:     opts,
		logger:   logger,
		inflater: inflater,
		order:    order,
	}, nil
}

func (c *Converter) newStore() (scratch.Store, error) {
	switch c.opts.Scratch {
	case ScratchMemory:
		return scratch.NewMemStore(), nil
	case ScratchZstd:
		return scratch.NewZstdStore(), nil
	}

	root := c.opts.ScratchDir
	if root == "" {
		root = workenv.GetScratchRoot()
	}
	if c.opts.CleanStale {
		if n, err := workenv.CleanStale(root, StaleScratchAge); err != nil {
			c.logger.Debug("Failed to clean stale scratch directories", "root", root, "error", err)
		} else if n > 0 {
			c.logger.Info("🧹 Removed stale scratch directories", "root", root, "count", n)
		}
	}
	store, err := scratch.NewFileStore(root, c.logger.Named("scratch"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Convert reads a PNG from in and writes the converted image to out. The
// returned Result carries the warnings raised so far even when err is not
// nil.
func (c *Converter) Convert(in io.Reader, out io.WriteSeeker) (*Result, error) {
	reporter := diag.NewReporter(c.logger)
	result := &Result{Format: c.opts.Format}

	store, err := c.newStore()
	if err != nil {
		return result, err
	}
	defer func() {
		if err := store.RemoveAll(); err != nil {
			c.logger.Warn("Failed to remove scratch storage", "error", err)
		}
	}()

	img, err := c.decode(in, store, reporter)
	result.Warnings = reporter.Warnings()
	if err != nil {
		return result, err
	}
	result.describe(img)
	c.logScratch(store, img)

	if err := c.encode(img, store, out, result); err != nil {
		return result, err
	}
	result.Warnings = reporter.Warnings()

	c.logger.Info("✅ Conversion complete",
		"format", result.Format, "width", result.Width, "height", result.Height,
		"warnings", len(result.Warnings))
	return result, nil
}

// Check decodes a PNG without producing output and reports what a
// conversion would have warned about.
func (c *Converter) Check(in io.Reader) (*Result, error) {
	reporter := diag.NewReporter(c.logger)
	result := &Result{}

	store, err := c.newStore()
	if err != nil {
		return result, err
	}
	defer func() {
		if err := store.RemoveAll(); err != nil {
			c.logger.Warn("Failed to remove scratch storage", "error", err)
		}
	}()

	img, err := c.decode(in, store, reporter)
	result.Warnings = reporter.Warnings()
	if err != nil {
		return result, err
	}
	result.describe(img)
	c.logScratch(store, img)

	c.logger.Info("🔍 Check complete", "width", result.Width, "height", result.Height,
		"warnings", len(result.Warnings))
	return result, nil
}

func (c *Converter) decode(in io.Reader, store scratch.Store, reporter *diag.Reporter) (*raster.Descriptor, error) {
	dec, err := png.NewDecoder(in, png.Config{
		Store:    store,
		Inflater: c.inflater,
		Reporter: reporter,
		Logger:   c.logger.Named("png"),
	})
	if err != nil {
		return nil, err
	}
	return dec.Decode()
}

func (c *Converter) encode(img *raster.Descriptor, store scratch.Store, out io.WriteSeeker, result *Result) error {
	if c.opts.Format == FormatPPM {
		return ppm.NewEncoder(out, store, c.logger.Named("ppm")).Encode(img)
	}

	enc := tiff.NewEncoder(out, c.order, store, c.logger.Named("tiff"))
	if err := enc.Encode(img); err != nil {
		return err
	}
	result.Tags = enc.Directory().Len()
	return nil
}

// logScratch reports how much scratch space the raster took.
func (c *Converter) logScratch(store scratch.Store, img *raster.Descriptor) {
	size, err := store.Size(img.PixelBlob)
	if err != nil {
		return
	}
	switch s := store.(type) {
	case *scratch.ZstdStore:
		c.logger.Debug("🗜️ Raster in compressed scratch", "bytes", size, "compressed", s.CompressedSize(img.PixelBlob))
	case *scratch.FileStore:
		c.logger.Debug("📁 Raster in scratch directory", "bytes", size, "dir", s.Dir())
	default:
		c.logger.Debug("Raster in memory scratch", "bytes", size)
	}
}

func (r *Result) describe(img *raster.Descriptor) {
	r.Width = img.Width
	r.Height = img.Height
	r.BitDepth = img.BitDepth
	r.SamplesPerPixel = img.SamplesPerPixel
	r.Interlaced = img.Interlaced
	r.PassthroughBytes = img.ExtraBytes
}

// ConvertFile converts the file at inPath into outPath. A partially written
// output file is removed when the conversion fails.
func (c *Converter) ConvertFile(inPath, outPath string) (*Result, error) {
	c.logger.Debug("🔍 Converting", "input", inPath, "output", outPath)

	in, err := os.Open(inPath)
	if err != nil {
		return &Result{Format: c.opts.Format}, fmt.Errorf("%w: %v", perrors.ErrRead, err)
	}
	defer in.Close()

	out, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, c.opts.OutputMode)
	if err != nil {
		return &Result{Format: c.opts.Format}, fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}

	result, err := c.Convert(in, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %v", perrors.ErrWrite, closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(outPath); rmErr != nil {
			c.logger.Debug("Failed to remove partial output", "path", outPath, "error", rmErr)
		}
		return result, err
	}
	return result, nil
}
