package png

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// chunkWriter writes one chunk in PNG framing, computing its CRC.
type chunkWriter struct {
	w   io.Writer
	crc hash.Hash32
	buf [8]byte
}

func newChunkWriter(w io.Writer) *chunkWriter {
	return &chunkWriter{w: w, crc: crc32.NewIEEE()}
}

func (c *chunkWriter) begin(length uint32, typ ChunkType) error {
	binary.BigEndian.PutUint32(c.buf[0:4], length)
	copy(c.buf[4:8], typ[:])
	c.crc.Reset()
	c.crc.Write(typ[:])
	if _, err := c.w.Write(c.buf[:8]); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	return nil
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	c.crc.Write(p)
	n, err := c.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	return n, nil
}

func (c *chunkWriter) end() error {
	binary.BigEndian.PutUint32(c.buf[0:4], c.crc.Sum32())
	if _, err := c.w.Write(c.buf[:4]); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	return nil
}
