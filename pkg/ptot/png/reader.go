package png

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// ChunkReader reads the length/type/body/CRC framing of a PNG stream. It
// tracks how much of the current chunk body is left and keeps the running
// CRC of everything read from it.
type ChunkReader struct {
	r        *bufio.Reader
	reporter *diag.Reporter
	logger   hclog.Logger

	typ       ChunkType
	length    uint32
	remaining uint32
	crc       uint32
	tmp       [8]byte
}

// NewChunkReader creates a ChunkReader over r.
func NewChunkReader(r io.Reader, reporter *diag.Reporter, logger hclog.Logger) *ChunkReader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if reporter == nil {
		reporter = diag.NewReporter(logger)
	}
	return &ChunkReader{
		r:        bufio.NewReaderSize(r, readBufferSize),
		reporter: reporter,
		logger:   logger,
	}
}

// ChecksumIEEE computes the PNG chunk CRC-32 of data.
func ChecksumIEEE(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", perrors.ErrRead, what)
	}
	return fmt.Errorf("%w: %s: %v", perrors.ErrRead, what, err)
}

// ReadSignature checks the file signature. When it is missing, the signature
// is looked for again after a 128-byte foreign header.
func (c *ChunkReader) ReadSignature() error {
	if _, err := io.ReadFull(c.r, c.tmp[:8]); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrBadSignature, readError("signature", err))
	}
	if string(c.tmp[:8]) == Signature {
		return nil
	}

	prefix := make([]byte, macBinaryHeaderSize)
	if _, err := io.ReadFull(c.r, prefix); err != nil {
		return fmt.Errorf("%w: no signature at start of file", perrors.ErrBadSignature)
	}
	if string(prefix[macBinaryHeaderSize-8:]) != Signature {
		return perrors.ErrBadSignature
	}
	c.logger.Debug("🔍 Found signature after 128-byte header")
	return nil
}

// ReadHeader reads the length and type of the next chunk and seeds its CRC.
func (c *ChunkReader) ReadHeader() error {
	if _, err := io.ReadFull(c.r, c.tmp[:8]); err != nil {
		return readError("chunk header", err)
	}

	c.length = binary.BigEndian.Uint32(c.tmp[0:4])
	c.remaining = c.length
	copy(c.typ[:], c.tmp[4:8])

	if c.length > MaxChunkLength {
		c.reporter.Warn(diag.WarnChunkTooLong, c.typ.String(), fmt.Sprintf("%d bytes", c.length))
	}
	if !c.typ.IsAlpha() {
		return fmt.Errorf("%w: chunk type %q", perrors.ErrBadFraming, c.tmp[4:8])
	}

	c.crc = crc32.Update(0, crc32.IEEETable, c.typ[:])
	c.logger.Trace("📦 Chunk", "type", c.typ.String(), "length", c.length)
	return nil
}

// Type returns the type of the current chunk.
func (c *ChunkReader) Type() ChunkType {
	return c.typ
}

// Length returns the declared length of the current chunk.
func (c *ChunkReader) Length() uint32 {
	return c.length
}

// Remaining returns the number of unread body bytes of the current chunk.
func (c *ChunkReader) Remaining() uint32 {
	return c.remaining
}

// Read reads body bytes of the current chunk. It returns io.EOF at the end
// of the body.
func (c *ChunkReader) Read(p []byte) (int, error) {
	if c.remaining == 0 {
		return 0, io.EOF
	}
	if uint32(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= uint32(n)
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p[:n])
	if err == io.EOF && c.remaining > 0 {
		err = readError(c.typ.String()+" body", io.ErrUnexpectedEOF)
	} else if err != nil && err != io.EOF {
		err = readError(c.typ.String()+" body", err)
	}
	return n, err
}

// ReadByte reads one body byte of the current chunk.
func (c *ChunkReader) ReadByte() (byte, error) {
	if c.remaining == 0 {
		return 0, io.EOF
	}
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, readError(c.typ.String()+" body", err)
	}
	c.remaining--
	c.tmp[0] = b
	c.crc = crc32.Update(c.crc, crc32.IEEETable, c.tmp[:1])
	return b, nil
}

// ReadBody reads exactly n body bytes.
func (c *ChunkReader) ReadBody(n int) ([]byte, error) {
	if uint32(n) > c.remaining {
		return nil, fmt.Errorf("%w: %s needs %d bytes, has %d", perrors.ErrBadFraming, c.typ, n, c.remaining)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		return nil, readError(c.typ.String()+" body", err)
	}
	return buf, nil
}

// ReadRest reads the rest of the body. Memory grows with the data actually
// present, not with the declared length.
func (c *ChunkReader) ReadRest() ([]byte, error) {
	data, err := io.ReadAll(c)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Skip discards the rest of the body, still accumulating the CRC.
func (c *ChunkReader) Skip() error {
	_, err := io.Copy(io.Discard, c)
	return err
}

// VerifyCRC reads the stored CRC of the current chunk and compares it with
// the computed one. A mismatch is only a warning.
func (c *ChunkReader) VerifyCRC() error {
	if _, err := io.ReadFull(c.r, c.tmp[:4]); err != nil {
		return readError(c.typ.String()+" CRC", err)
	}
	stored := binary.BigEndian.Uint32(c.tmp[:4])
	if stored != c.crc {
		c.reporter.Warn(diag.WarnBadCRC, c.typ.String(),
			fmt.Sprintf("stored 0x%08x, computed 0x%08x", stored, c.crc))
	}
	return nil
}

// AtEOF reports whether the underlying stream has no more bytes.
func (c *ChunkReader) AtEOF() bool {
	_, err := c.r.Peek(1)
	return err != nil
}
