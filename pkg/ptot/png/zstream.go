package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/adler32"
	"io"

	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/inflate"
)

// zlib framing constants.
const (
	zlibMethodDeflate = 8
	zlibPresetDict    = 0x20
	zlibMaxWindow     = 32768
)

// imageDataSource feeds the compressed pixel stream to a decompressor. The
// stream may be split over any number of consecutive IDAT chunks; when one
// is used up its CRC is checked and the next header is read.
type imageDataSource struct {
	cr  *ChunkReader
	err error
}

func (s *imageDataSource) advance() error {
	for s.cr.Remaining() == 0 {
		if s.err != nil {
			return s.err
		}
		if err := s.cr.VerifyCRC(); err != nil {
			s.err = err
			return err
		}
		if err := s.cr.ReadHeader(); err != nil {
			s.err = err
			return err
		}
		if s.cr.Type() != TypeIDAT {
			s.err = fmt.Errorf("%w: %s chunk inside image data", perrors.ErrUnexpectedEndOfStream, s.cr.Type())
			return s.err
		}
	}
	return nil
}

func (s *imageDataSource) Read(p []byte) (int, error) {
	if err := s.advance(); err != nil {
		return 0, err
	}
	n, err := s.cr.Read(p)
	if err == io.EOF {
		err = nil
	}
	s.record(err)
	return n, err
}

func (s *imageDataSource) ReadByte() (byte, error) {
	if err := s.advance(); err != nil {
		return 0, err
	}
	b, err := s.cr.ReadByte()
	s.record(err)
	return b, err
}

func (s *imageDataSource) record(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

func (s *imageDataSource) failure() error {
	return s.err
}

// textSource feeds a compressed text value held in memory. Running out of
// bytes before the stream ends is fatal.
type textSource struct {
	*bytes.Reader
}

func (s textSource) failure() error {
	return nil
}

type streamSource interface {
	inflate.Source
	failure() error
}

// zstream decodes one zlib-framed stream: header, DEFLATE data in window
// sized pieces, then the Adler-32 trailer.
type zstream struct {
	src      streamSource
	dec      inflate.Decompressor
	reporter *diag.Reporter
	chunk    string

	window   []byte
	checksum hash.Hash32
	produced int64
}

// newZstream reads and validates the 2-byte zlib header.
func newZstream(src streamSource, dec inflate.Decompressor, reporter *diag.Reporter, chunk string) (*zstream, error) {
	var hdr [2]byte
	for i := range hdr {
		b, err := src.ReadByte()
		if err != nil {
			return nil, streamError(src, err)
		}
		hdr[i] = b
	}

	flags := binary.BigEndian.Uint16(hdr[:])
	windowSize := 1 << ((flags>>12)&0x0F + 8)
	switch {
	case windowSize > zlibMaxWindow:
		return nil, fmt.Errorf("%w: window size %d", perrors.ErrCompressionHeader, windowSize)
	case flags%31 != 0:
		return nil, fmt.Errorf("%w: header check bits 0x%04x", perrors.ErrCompressionHeader, flags)
	case (flags>>8)&0x0F != zlibMethodDeflate:
		return nil, fmt.Errorf("%w: method %d", perrors.ErrCompressionHeader, (flags>>8)&0x0F)
	case flags&zlibPresetDict != 0:
		return nil, fmt.Errorf("%w: preset dictionary", perrors.ErrCompressionHeader)
	}

	return &zstream{
		src:      src,
		dec:      dec,
		reporter: reporter,
		chunk:    chunk,
		window:   make([]byte, windowSize),
		checksum: adler32.New(),
	}, nil
}

// streamError maps a failure from the decompressor or the source to the
// converter's error kinds. A failure recorded by the source wins.
func streamError(src streamSource, err error) error {
	if srcErr := src.failure(); srcErr != nil {
		return srcErr
	}
	if errors.Is(err, perrors.ErrRead) || errors.Is(err, perrors.ErrBadFraming) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", perrors.ErrUnexpectedEndOfStream, err)
	}
	return fmt.Errorf("%w: %v", perrors.ErrCorruptStream, err)
}

// Run inflates the stream, handing each filled window (and the final partial
// one) to sink, then checks the trailer.
func (z *zstream) Run(sink func([]byte) error) error {
	r := z.dec.NewReader(z.src)
	defer r.Close()

	for done := false; !done; {
		filled := 0
		for filled < len(z.window) {
			n, err := r.Read(z.window[filled:])
			filled += n
			if err == io.EOF {
				done = true
				break
			}
			if err != nil {
				return streamError(z.src, err)
			}
		}
		if filled == 0 {
			continue
		}

		z.checksum.Write(z.window[:filled])
		z.produced += int64(filled)
		if err := sink(z.window[:filled]); err != nil {
			return err
		}
	}

	return z.checkTrailer()
}

func (z *zstream) checkTrailer() error {
	var trailer [4]byte
	for i := range trailer {
		b, err := z.src.ReadByte()
		if err != nil {
			return streamError(z.src, err)
		}
		trailer[i] = b
	}

	stored := binary.BigEndian.Uint32(trailer[:])
	if computed := z.checksum.Sum32(); stored != computed {
		z.reporter.Warn(diag.WarnBadChecksum, z.chunk,
			fmt.Sprintf("stored 0x%08x, computed 0x%08x", stored, computed))
	}
	return nil
}

// Produced returns the number of uncompressed bytes delivered so far.
func (z *zstream) Produced() int64 {
	return z.produced
}
