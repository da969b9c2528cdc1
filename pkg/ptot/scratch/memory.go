package scratch

import (
	"bytes"
	"fmt"
	"io"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// MemStore keeps blobs in memory. Useful for small images and tests.
type MemStore struct {
	blobs map[string]*bytes.Buffer
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string]*bytes.Buffer)}
}

// Create implements Store.
func (s *MemStore) Create(id string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	s.blobs[id] = buf
	return nopWriteCloser{buf}, nil
}

// Open implements Store.
func (s *MemStore) Open(id string) (io.ReadCloser, error) {
	buf, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: scratch %s does not exist", perrors.ErrRead, id)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// Size implements Store.
func (s *MemStore) Size(id string) (int64, error) {
	buf, ok := s.blobs[id]
	if !ok {
		return 0, fmt.Errorf("%w: scratch %s does not exist", perrors.ErrRead, id)
	}
	return int64(buf.Len()), nil
}

// CloseAll implements Store.
func (s *MemStore) CloseAll() error {
	return nil
}

// RemoveAll implements Store.
func (s *MemStore) RemoveAll() error {
	s.blobs = make(map[string]*bytes.Buffer)
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
