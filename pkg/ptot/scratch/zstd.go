package scratch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// ZstdStore keeps blobs in memory, zstd compressed. Raster data is usually
// very compressible, so large images fit where MemStore would not.
type ZstdStore struct {
	blobs   map[string]*zstdBlob
	writers []*zstdWriter
}

type zstdBlob struct {
	data   bytes.Buffer
	size   int64
	closed bool
}

// NewZstdStore creates an empty compressed in-memory store.
func NewZstdStore() *ZstdStore {
	return &ZstdStore{blobs: make(map[string]*zstdBlob)}
}

// Create implements Store.
func (s *ZstdStore) Create(id string) (io.WriteCloser, error) {
	blob := &zstdBlob{}
	enc, err := zstd.NewWriter(&blob.data,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: scratch %s: %v", perrors.ErrWrite, id, err)
	}
	s.blobs[id] = blob
	w := &zstdWriter{enc: enc, blob: blob}
	s.writers = append(s.writers, w)
	return w, nil
}

// Open implements Store. A blob can only be read once its writer is closed.
func (s *ZstdStore) Open(id string) (io.ReadCloser, error) {
	blob, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: scratch %s does not exist", perrors.ErrRead, id)
	}
	if !blob.closed {
		return nil, fmt.Errorf("%w: scratch %s is still being written", perrors.ErrRead, id)
	}
	if blob.size == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(blob.data.Bytes()), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: scratch %s: %v", perrors.ErrRead, id, err)
	}
	return dec.IOReadCloser(), nil
}

// Size implements Store. It reports the uncompressed size.
func (s *ZstdStore) Size(id string) (int64, error) {
	blob, ok := s.blobs[id]
	if !ok {
		return 0, fmt.Errorf("%w: scratch %s does not exist", perrors.ErrRead, id)
	}
	return blob.size, nil
}

// CompressedSize returns the number of bytes id occupies in memory.
func (s *ZstdStore) CompressedSize(id string) int64 {
	if blob, ok := s.blobs[id]; ok {
		return int64(blob.data.Len())
	}
	return 0
}

// CloseAll implements Store.
func (s *ZstdStore) CloseAll() error {
	var firstErr error
	for _, w := range s.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.writers = nil
	return firstErr
}

// RemoveAll implements Store.
func (s *ZstdStore) RemoveAll() error {
	err := s.CloseAll()
	s.blobs = make(map[string]*zstdBlob)
	return err
}

type zstdWriter struct {
	enc  *zstd.Encoder
	blob *zstdBlob
}

func (w *zstdWriter) Write(p []byte) (int, error) {
	n, err := w.enc.Write(p)
	w.blob.size += int64(n)
	return n, err
}

func (w *zstdWriter) Close() error {
	if w.blob.closed {
		return nil
	}
	w.blob.closed = true
	return w.enc.Close()
}
