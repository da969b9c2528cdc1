// Package ppm writes true-colour rasters as binary PPM (P6) files.
package ppm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

// Encoder writes one PPM file.
type Encoder struct {
	w      io.Writer
	store  scratch.Store
	logger hclog.Logger
}

// NewEncoder creates an Encoder writing to w, reading pixels from store.
func NewEncoder(w io.Writer, store scratch.Store, logger hclog.Logger) *Encoder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Encoder{w: w, store: store, logger: logger}
}

// Encode writes img. Only true-colour images can be written; an alpha
// channel is dropped. 16-bit samples are written big-endian with a maximum
// value of 65535.
func (e *Encoder) Encode(img *raster.Descriptor) error {
	if img.IsPalette || !img.IsColor {
		return fmt.Errorf("%w: PPM output needs a true-colour image", perrors.ErrUnsupportedFormat)
	}
	if err := img.Validate(); err != nil {
		return err
	}

	maxVal := 255
	sampleBytes := 1
	if img.BitDepth == 16 {
		maxVal = 65535
		sampleBytes = 2
	}

	rc, err := scratch.OpenPadded(e.store, img.PixelBlob)
	if err != nil {
		return err
	}
	defer rc.Close()
	in := bufio.NewReader(rc)
	out := bufio.NewWriter(e.w)

	if _, err := fmt.Fprintf(out, "P6\n%d %d\n%d\n", img.Width, img.Height, maxVal); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}

	pixel := img.PixelBytes()
	rgb := 3 * sampleBytes
	row := make([]byte, img.RasterRowBytes())
	for y := 0; y < int(img.Height); y++ {
		if _, err := io.ReadFull(in, row); err != nil {
			return fmt.Errorf("%w: pixel data: %v", perrors.ErrRead, err)
		}
		for x := 0; x < int(img.Width); x++ {
			if _, err := out.Write(row[x*pixel : x*pixel+rgb]); err != nil {
				return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
			}
		}
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	e.logger.Debug("✅ PPM written", "width", img.Width, "height", img.Height, "maxval", maxVal)
	return nil
}
