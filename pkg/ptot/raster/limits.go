package raster

import (
	"fmt"
	"math"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

const (
	// MaxRowBytes bounds one reconstructed row. Two rows are held in
	// memory while the pixel stream is unfiltered.
	MaxRowBytes = 64 << 20

	// MaxImageBytes bounds the reconstructed raster. TIFF offsets are 32
	// bits, so nothing larger could be written anyway.
	MaxImageBytes = math.MaxUint32
)

// CheckLimits rejects images whose rows or raster exceed the size limits.
// It is computed in 64 bits so it is safe before any buffer is sized.
func (d *Descriptor) CheckLimits() error {
	row := int64(d.Width) * int64(d.PixelBytes())
	if row > MaxRowBytes {
		return fmt.Errorf("%w: row of %d bytes exceeds %d", perrors.ErrCapacity, row, MaxRowBytes)
	}
	if total := row * int64(d.Height); total > MaxImageBytes {
		return fmt.Errorf("%w: raster of %d bytes exceeds %d", perrors.ErrCapacity, total, int64(MaxImageBytes))
	}
	return nil
}
