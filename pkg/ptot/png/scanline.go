package png

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

// paeth predicts a byte from its left, above and upper-left neighbours.
// Ties go to left, then above.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// unfilterAt reconstructs cur[x] in place. Bytes left of x in cur must
// already be reconstructed; prev is the reconstructed row above.
func unfilterAt(filter int, cur, prev []byte, x, offset int) {
	var left, upLeft byte
	if x >= offset {
		left = cur[x-offset]
		upLeft = prev[x-offset]
	}
	above := prev[x]

	switch filter {
	case FilterSub:
		cur[x] += left
	case FilterUp:
		cur[x] += above
	case FilterAverage:
		cur[x] += byte((int(left) + int(above)) / 2)
	case FilterPaeth:
		cur[x] += paeth(left, above, upLeft)
	}
}

// Defilter reconstructs a whole filtered row in place.
func Defilter(filter int, cur, prev []byte, offset int) {
	for x := range cur {
		unfilterAt(filter, cur, prev, x, offset)
	}
}

// Reconstructor turns the inflated pixel stream back into rows. It is fed
// arbitrary slices of the stream through Write, undoes the row filters and
// writes finished rows to scratch storage: the raster blob for sequential
// images, one blob per pass for interlaced ones. Sub-byte samples are
// widened to one byte each and scaled to 0..255.
type Reconstructor struct {
	img      *raster.Descriptor
	store    scratch.Store
	reporter *diag.Reporter
	logger   hclog.Logger

	rows     [2][]byte
	cur      int
	filter   int
	x        int
	lineSize int
	offset   int
	unpacked []byte

	pass int
	row  int
	done bool

	excess  int64
	writers [NumPasses]io.WriteCloser
	outputs [NumPasses]*bufio.Writer
}

// NewReconstructor prepares the output blobs for img.
func NewReconstructor(img *raster.Descriptor, store scratch.Store, reporter *diag.Reporter, logger hclog.Logger) (*Reconstructor, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fullRow := img.RowBytes(0, 1)
	r := &Reconstructor{
		img:      img,
		store:    store,
		reporter: reporter,
		logger:   logger,
		rows:     [2][]byte{make([]byte, fullRow), make([]byte, fullRow)},
		filter:   filterUnset,
		offset:   img.FilterOffset(),
	}
	if img.BitDepth < 8 {
		r.unpacked = make([]byte, 0, img.Width)
	}

	if img.Interlaced {
		for p := 0; p < NumPasses; p++ {
			if err := r.openOutput(p, scratch.PassBlob(p)); err != nil {
				r.closeOutputs()
				return nil, err
			}
		}
		r.pass = -1
		r.nextPass()
	} else {
		if err := r.openOutput(0, scratch.PixelsBlob); err != nil {
			return nil, err
		}
		r.lineSize = fullRow
	}
	return r, nil
}

func (r *Reconstructor) openOutput(slot int, id string) error {
	w, err := r.store.Create(id)
	if err != nil {
		return err
	}
	r.writers[slot] = w
	r.outputs[slot] = bufio.NewWriter(w)
	return nil
}

// Write consumes inflated bytes.
func (r *Reconstructor) Write(p []byte) (int, error) {
	for _, b := range p {
		if r.done {
			r.excess++
			continue
		}
		if r.filter == filterUnset {
			r.filter = int(b)
			if r.filter > FilterPaeth {
				r.reporter.Warn(diag.WarnBadFilter, TypeIDAT.String(), fmt.Sprintf("filter %d at row %d", b, r.row))
				r.filter = FilterNone
			}
			continue
		}

		cur := r.rows[r.cur]
		cur[r.x] = b
		unfilterAt(r.filter, cur, r.rows[r.cur^1], r.x, r.offset)
		r.x++
		if r.x >= r.lineSize {
			if err := r.finishRow(); err != nil {
				return 0, err
			}
		}
	}
	return len(p), nil
}

func (r *Reconstructor) finishRow() error {
	line := r.rows[r.cur][:r.lineSize]
	slot := 0
	if r.img.Interlaced {
		slot = r.pass
	}

	out := line
	if r.img.BitDepth < 8 {
		start, step := 0, 1
		if r.img.Interlaced {
			start, step = passStartCol[r.pass], passColStep[r.pass]
		}
		out = r.unpack(line, (int(r.img.Width)-start-1)/step+1)
	}
	if _, err := r.outputs[slot].Write(out); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}

	r.filter = filterUnset
	r.x = 0
	r.cur ^= 1

	if !r.img.Interlaced {
		r.row++
		r.done = r.row >= int(r.img.Height)
		return nil
	}

	r.row += passRowStep[r.pass]
	if r.row >= int(r.img.Height) {
		r.nextPass()
		clear(r.rows[r.cur^1])
	}
	return nil
}

// nextPass moves to the next pass that has pixels.
func (r *Reconstructor) nextPass() {
	for {
		r.pass++
		if r.pass >= NumPasses {
			r.done = true
			return
		}
		if passIsEmpty(r.pass, r.img.Width, r.img.Height) {
			continue
		}
		r.row = passStartRow[r.pass]
		r.lineSize = r.img.RowBytes(passStartCol[r.pass], passColStep[r.pass])
		return
	}
}

// unpack widens packed sub-byte samples to one byte each, most significant
// bits first, scaled so the maximum sample becomes 255.
func (r *Reconstructor) unpack(line []byte, pixels int) []byte {
	depth := uint(r.img.BitDepth)
	maxVal := (1 << depth) - 1
	perByte := 8 / int(depth)

	out := r.unpacked[:0]
	for i := 0; i < pixels; i++ {
		b := line[i/perByte]
		shift := 8 - depth*uint(i%perByte+1)
		v := int(b>>shift) & maxVal
		out = append(out, byte(v*255/maxVal))
	}
	r.unpacked = out
	return out
}

// Done reports whether every row of the image has been reconstructed.
func (r *Reconstructor) Done() bool {
	return r.done
}

func (r *Reconstructor) closeOutputs() error {
	var firstErr error
	for i, out := range r.outputs {
		if out == nil {
			continue
		}
		if err := out.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", perrors.ErrWrite, err)
		}
		if err := r.writers[i].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", perrors.ErrWrite, err)
		}
		r.outputs[i] = nil
	}
	return firstErr
}

// Finish flushes the row blobs and, for interlaced images, assembles the
// raster blob. Missing rows are reported and later read as zero.
func (r *Reconstructor) Finish() error {
	if !r.done {
		r.reporter.Warn(diag.WarnShortImageData, TypeIDAT.String(),
			fmt.Sprintf("stopped at pass %d row %d", r.pass, r.row))
	}
	if r.excess > 0 {
		r.logger.Debug("Ignoring inflated bytes past the last row", "bytes", r.excess)
	}
	if err := r.closeOutputs(); err != nil {
		return err
	}

	if r.img.Interlaced {
		if err := Reassemble(r.img, r.store); err != nil {
			return err
		}
	}
	r.img.PixelBlob = scratch.PixelsBlob
	return nil
}
