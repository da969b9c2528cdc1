package tiff

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hashicorp/go-hclog"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
)

const (
	headerSize         = 8
	directoryEntrySize = 12
)

// Encoder writes one TIFF file. Values that do not fit in a directory entry
// and the strips are written as the tags are added; the directory goes last
// and the header is then patched to point at it.
type Encoder struct {
	w      io.WriteSeeker
	out    *bufio.Writer
	order  binary.ByteOrder
	store  scratch.Store
	logger hclog.Logger

	dir    *Directory
	base   int64 // position of the header in w
	offset int64 // bytes written since the header
}

// NewEncoder creates an Encoder writing to w in the given byte order,
// reading pixel data from store.
func NewEncoder(w io.WriteSeeker, order binary.ByteOrder, store scratch.Store, logger hclog.Logger) *Encoder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if order == nil {
		order = HostOrder()
	}
	return &Encoder{
		w:      w,
		out:    bufio.NewWriterSize(w, writeBufferSize),
		order:  order,
		store:  store,
		logger: logger,
		dir:    NewDirectory(),
	}
}

// Directory returns the directory built so far.
func (e *Encoder) Directory() *Directory {
	return e.dir
}

// Encode writes the whole file for img.
func (e *Encoder) Encode(img *raster.Descriptor) error {
	if err := img.Validate(); err != nil {
		return err
	}
	base, err := e.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	e.base = base

	steps := []struct {
		name string
		fn   func(*raster.Descriptor) error
	}{
		{"header", e.writeHeader},
		{"basic tags", e.writeBasicTags},
		{"strips", e.writeStrips},
		{"extended tags", e.writeExtendedTags},
		{"passthrough", e.writePassthrough},
		{"directory", e.writeDirectory},
	}
	for _, step := range steps {
		e.logger.Trace("TIFF step", "step", step.name, "offset", e.offset)
		if err := step.fn(img); err != nil {
			return fmt.Errorf("writing %s: %w", step.name, err)
		}
	}

	e.logger.Debug("✅ TIFF written", "bytes", e.offset, "tags", e.dir.Len())
	return nil
}

// reserve fails when n more bytes would take the file past what 32-bit
// offsets can address.
func (e *Encoder) reserve(n int64) error {
	if e.offset+n > math.MaxUint32 {
		return fmt.Errorf("%w: file would exceed %d bytes", perrors.ErrCapacity, int64(math.MaxUint32))
	}
	return nil
}

func (e *Encoder) write(p []byte) error {
	if err := e.reserve(int64(len(p))); err != nil {
		return err
	}
	if _, err := e.out.Write(p); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	e.offset += int64(len(p))
	return nil
}

// align pads the output to an even offset.
func (e *Encoder) align() error {
	if e.offset%2 == 0 {
		return nil
	}
	return e.write([]byte{0})
}

func (e *Encoder) writeHeader(*raster.Descriptor) error {
	var hdr [headerSize]byte
	marker := orderMarker(e.order)
	copy(hdr[0:2], marker[:])
	e.order.PutUint16(hdr[2:4], magicNumber)
	// hdr[4:8] is patched once the directory offset is known.
	return e.write(hdr[:])
}

// addValue adds a directory entry for count values of type typ, encoded in
// data. Data of up to 4 bytes lives in the entry, longer data is written at
// the next even offset.
func (e *Encoder) addValue(tag uint16, typ DataType, count uint32, data []byte) error {
	entry := Entry{Tag: tag, Type: typ, Count: count}
	if len(data) <= 4 {
		copy(entry.Value[:], data)
	} else {
		if err := e.align(); err != nil {
			return err
		}
		if err := e.reserve(int64(len(data))); err != nil {
			return err
		}
		e.order.PutUint32(entry.Value[:], uint32(e.offset))
		if err := e.write(data); err != nil {
			return err
		}
	}
	return e.dir.Add(entry)
}

func (e *Encoder) addShort(tag uint16, vals ...uint16) error {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		e.order.PutUint16(data[2*i:], v)
	}
	return e.addValue(tag, TypeShort, uint32(len(vals)), data)
}

func (e *Encoder) addLong(tag uint16, vals ...uint32) error {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		e.order.PutUint32(data[4*i:], v)
	}
	return e.addValue(tag, TypeLong, uint32(len(vals)), data)
}

// addRational adds numerator, denominator pairs.
func (e *Encoder) addRational(tag uint16, pairs ...uint32) error {
	data := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		e.order.PutUint32(data[4*i:], v)
	}
	return e.addValue(tag, TypeRational, uint32(len(pairs)/2), data)
}

// addASCII adds a NUL terminated string.
func (e *Encoder) addASCII(tag uint16, s string) error {
	data := append([]byte(s), 0)
	return e.addValue(tag, TypeASCII, uint32(len(data)), data)
}

func (e *Encoder) writeBasicTags(img *raster.Descriptor) error {
	if err := e.addLong(TagImageWidth, img.Width); err != nil {
		return err
	}
	if err := e.addLong(TagImageLength, img.Height); err != nil {
		return err
	}

	photometric := uint16(photometricBlackIsZero)
	switch {
	case img.IsPalette:
		photometric = photometricPalette
	case img.IsColor:
		photometric = photometricRGB
	}
	if err := e.addShort(TagPhotometric, photometric); err != nil {
		return err
	}
	if err := e.addShort(TagCompression, compressionNone); err != nil {
		return err
	}
	if err := e.addShort(TagPlanarConfiguration, planarContiguous); err != nil {
		return err
	}

	bits := make([]uint16, img.SamplesPerPixel)
	for i := range bits {
		bits[i] = uint16(img.BitDepth)
	}
	if err := e.addShort(TagBitsPerSample, bits...); err != nil {
		return err
	}
	if err := e.addShort(TagSamplesPerPixel, uint16(img.SamplesPerPixel)); err != nil {
		return err
	}

	if img.IsPalette {
		if err := e.addShort(TagColorMap, ColorMap(img)...); err != nil {
			return err
		}
	}
	if img.HasAlpha {
		if err := e.addShort(TagExtraSamples, extraSampleUnassociatedAlpha); err != nil {
			return err
		}
	}
	return nil
}

// ColorMap returns the TIFF colour map for a palette image: all red values,
// then green, then blue, 2^depth entries each, scaled to 16 bits.
func ColorMap(img *raster.Descriptor) []uint16 {
	size := 1 << img.BitDepth
	cmap := make([]uint16, 3*size)
	for i, rgb := range img.Palette {
		if i >= size {
			break
		}
		for c := 0; c < 3; c++ {
			cmap[c*size+i] = uint16(rgb[c]) * 257
		}
	}
	return cmap
}

// writeStrips writes the strip tables followed by the strips themselves.
func (e *Encoder) writeStrips(img *raster.Descriptor) error {
	plan, err := PlanStrips(img.RowBytes(0, 1), int(img.Height))
	if err != nil {
		return err
	}
	e.logger.Debug("📐 Strip plan",
		"line_size", plan.LineSize, "rows_per_strip", plan.RowsPerStrip, "strips", plan.Strips)

	if err := e.addLong(TagRowsPerStrip, uint32(plan.RowsPerStrip)); err != nil {
		return err
	}
	if err := e.addLong(TagStripByteCounts, plan.ByteCounts(int(img.Height))...); err != nil {
		return err
	}

	// The offsets table, if it does not fit in its entry, is written next
	// and the strips follow it.
	if err := e.align(); err != nil {
		return err
	}
	start := e.offset
	if plan.Strips > 1 {
		start += int64(4 * plan.Strips)
	}
	if err := e.reserve(start - e.offset + int64(plan.LineSize)*int64(img.Height)); err != nil {
		return err
	}
	if err := e.addLong(TagStripOffsets, plan.Offsets(uint32(start))...); err != nil {
		return err
	}
	if e.offset != start {
		return fmt.Errorf("%w: strips start at %d, expected %d", perrors.ErrWrite, e.offset, start)
	}

	return e.copyRows(img, plan)
}

func (e *Encoder) copyRows(img *raster.Descriptor, plan StripPlan) error {
	rc, err := scratch.OpenPadded(e.store, img.PixelBlob)
	if err != nil {
		return err
	}
	defer rc.Close()
	in := bufio.NewReader(rc)

	src := make([]byte, img.RasterRowBytes())
	dst := make([]byte, plan.LineSize)
	for row := 0; row < int(img.Height); row++ {
		if row > 0 && row%plan.RowsPerStrip == 0 {
			if err := e.align(); err != nil {
				return err
			}
		}
		if _, err := io.ReadFull(in, src); err != nil {
			return fmt.Errorf("%w: pixel data: %v", perrors.ErrRead, err)
		}
		packRow(dst, src, img.BitDepth, e.order)
		if err := e.write(dst); err != nil {
			return err
		}
	}
	return nil
}

// writePassthrough stores the copied PNG chunks in the private tag.
func (e *Encoder) writePassthrough(img *raster.Descriptor) error {
	if img.ExtraBlob == "" || img.ExtraBytes == 0 {
		return nil
	}
	rc, err := e.store.Open(img.ExtraBlob)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := e.align(); err != nil {
		return err
	}
	if err := e.reserve(img.ExtraBytes); err != nil {
		return err
	}
	entry := Entry{Tag: TagPNGChunks, Type: TypeUndefined, Count: uint32(img.ExtraBytes)}
	e.order.PutUint32(entry.Value[:], uint32(e.offset))

	n, err := io.Copy(e.out, io.LimitReader(rc, img.ExtraBytes))
	e.offset += n
	if err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	if n != img.ExtraBytes {
		return fmt.Errorf("%w: passthrough has %d bytes, expected %d", perrors.ErrRead, n, img.ExtraBytes)
	}
	return e.dir.Add(entry)
}

// writeDirectory writes the directory and patches the header to point at it.
func (e *Encoder) writeDirectory(*raster.Descriptor) error {
	if err := e.align(); err != nil {
		return err
	}
	if err := e.reserve(int64(2 + directoryEntrySize*e.dir.Len() + 4)); err != nil {
		return err
	}
	dirOffset := uint32(e.offset)

	entries := e.dir.Entries()
	buf := make([]byte, 2+directoryEntrySize*len(entries)+4)
	e.order.PutUint16(buf[0:2], uint16(len(entries)))
	for i, entry := range entries {
		p := buf[2+directoryEntrySize*i:]
		e.order.PutUint16(p[0:2], entry.Tag)
		e.order.PutUint16(p[2:4], uint16(entry.Type))
		e.order.PutUint32(p[4:8], entry.Count)
		copy(p[8:12], entry.Value[:])
	}
	if err := e.write(buf); err != nil {
		return err
	}
	if err := e.out.Flush(); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}

	var patch [4]byte
	e.order.PutUint32(patch[:], dirOffset)
	if _, err := e.w.Seek(e.base+4, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	if _, err := e.w.Write(patch[:]); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	if _, err := e.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	return nil
}
