package png

import (
	"bufio"
	"fmt"
	"io"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

// NumPasses is the number of Adam7 passes.
const NumPasses = 7

// Adam7 pass geometry.
var (
	passStartRow = [NumPasses]int{0, 0, 4, 0, 2, 0, 1}
	passStartCol = [NumPasses]int{0, 4, 0, 2, 0, 1, 0}
	passRowStep  = [NumPasses]int{8, 8, 8, 4, 4, 2, 2}
	passColStep  = [NumPasses]int{8, 8, 4, 4, 2, 2, 1}
)

// passTable maps (row mod 8, col mod 8) to the pass holding that pixel.
var passTable [8][8]int

func init() {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			passTable[row][col] = -1
			for p := 0; p < NumPasses; p++ {
				if row >= passStartRow[p] && (row-passStartRow[p])%passRowStep[p] == 0 &&
					col >= passStartCol[p] && (col-passStartCol[p])%passColStep[p] == 0 {
					passTable[row][col] = p
					break
				}
			}
		}
	}
}

// PassOf returns the pass holding the pixel at (row, col).
func PassOf(row, col int) int {
	return passTable[row&7][col&7]
}

// passIsEmpty reports whether a pass contains no pixels for an image of the
// given size.
func passIsEmpty(pass int, width, height uint32) bool {
	return uint32(passStartRow[pass]) >= height || uint32(passStartCol[pass]) >= width
}

// Reassemble interleaves the seven pass blobs into the raster order pixel
// blob. Passes that ran short read as zero.
func Reassemble(img *raster.Descriptor, store scratch.Store) error {
	var passes [NumPasses]*bufio.Reader
	for p := 0; p < NumPasses; p++ {
		rc, err := scratch.OpenPadded(store, scratch.PassBlob(p))
		if err != nil {
			return err
		}
		defer rc.Close()
		passes[p] = bufio.NewReader(rc)
	}

	w, err := store.Create(scratch.PixelsBlob)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(w)

	pixel := img.PixelBytes()
	line := make([]byte, img.RasterRowBytes())
	for row := 0; row < int(img.Height); row++ {
		for col := 0; col < int(img.Width); col++ {
			src := passes[PassOf(row, col)]
			if _, err := io.ReadFull(src, line[col*pixel:(col+1)*pixel]); err != nil {
				w.Close()
				return fmt.Errorf("%w: interlace pass: %v", perrors.ErrRead, err)
			}
		}
		if _, err := out.Write(line); err != nil {
			w.Close()
			return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
		}
	}

	if err := out.Flush(); err != nil {
		w.Close()
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	return w.Close()
}
