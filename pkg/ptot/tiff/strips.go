package tiff

import (
	"encoding/binary"
	"fmt"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// StripPlan describes how rows are grouped into strips.
type StripPlan struct {
	LineSize     int // bytes of one packed row
	RowsPerStrip int
	StripSize    int // bytes of a full strip
	Strips       int
}

// PlanStrips picks the rows per strip for an image of height rows of
// lineSize bytes. Starting near TargetStripSize bytes per strip, the rows
// per strip are doubled until both strip tables fit in StripTableCapacity.
func PlanStrips(lineSize, height int) (StripPlan, error) {
	if lineSize <= 0 || height <= 0 {
		return StripPlan{}, fmt.Errorf("%w: %d rows of %d bytes", perrors.ErrBadImage, height, lineSize)
	}

	rows := 1
	if lineSize <= SingleRowThreshold {
		rows = TargetStripSize / lineSize
	}

	var plan StripPlan
	for {
		plan = StripPlan{
			LineSize:     lineSize,
			RowsPerStrip: rows,
			StripSize:    rows * lineSize,
			Strips:       (height + rows - 1) / rows,
		}
		if 4*plan.Strips <= StripTableCapacity {
			break
		}
		rows *= 2
	}
	return plan, nil
}

// ByteCounts returns the exact size of each strip; the last one may be short.
func (p StripPlan) ByteCounts(height int) []uint32 {
	counts := make([]uint32, p.Strips)
	for i := range counts {
		rows := p.RowsPerStrip
		if remaining := height - i*p.RowsPerStrip; remaining < rows {
			rows = remaining
		}
		counts[i] = uint32(rows * p.LineSize)
	}
	return counts
}

// Offsets returns strip offsets for strips laid out from start, each full
// strip padded to an even size.
func (p StripPlan) Offsets(start uint32) []uint32 {
	spacing := uint32(p.StripSize + p.StripSize&1)
	offsets := make([]uint32, p.Strips)
	for i := range offsets {
		offsets[i] = start + uint32(i)*spacing
	}
	return offsets
}

// packRow converts one raster row to its TIFF form: widened sub-byte
// samples are packed back to depth bits taking the high bits of each byte,
// and big-endian 16-bit samples are written in order.
func packRow(dst, src []byte, depth int, order binary.ByteOrder) {
	switch {
	case depth < 8:
		clear(dst)
		perByte := 8 / depth
		for i, b := range src {
			shift := 8 - depth*(i%perByte+1)
			dst[i/perByte] |= (b >> (8 - depth)) << shift
		}
	case depth == 16:
		for i := 0; i+1 < len(src); i += 2 {
			order.PutUint16(dst[i:], binary.BigEndian.Uint16(src[i:]))
		}
	default:
		copy(dst, src)
	}
}
