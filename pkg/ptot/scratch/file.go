package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/internal/workenv"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/utils/permissions"
)

// FileStore keeps blobs as files in a private directory.
type FileStore struct {
	dir    string
	logger hclog.Logger

	mu      sync.Mutex
	handles map[*os.File]struct{}
}

// NewFileStore creates a store in a new directory under root.
func NewFileStore(root string, logger hclog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	dir, err := workenv.CreateScratchDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrWrite, err)
	}
	logger.Debug("📁 Scratch directory created", "dir", dir)

	return &FileStore{
		dir:     dir,
		logger:  logger,
		handles: make(map[*os.File]struct{}),
	}, nil
}

// Dir returns the directory holding the blobs.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".tmp")
}

// Create implements Store.
func (s *FileStore) Create(id string) (io.WriteCloser, error) {
	f, err := os.OpenFile(s.path(id), os.O_RDWR|os.O_CREATE|os.O_TRUNC, permissions.DefaultScratchPerms)
	if err != nil {
		return nil, fmt.Errorf("%w: scratch %s: %v", perrors.ErrWrite, id, err)
	}
	return s.track(f), nil
}

// Open implements Store.
func (s *FileStore) Open(id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("%w: scratch %s: %v", perrors.ErrRead, id, err)
	}
	return s.track(f), nil
}

// Size implements Store.
func (s *FileStore) Size(id string) (int64, error) {
	info, err := os.Stat(s.path(id))
	if err != nil {
		return 0, fmt.Errorf("%w: scratch %s: %v", perrors.ErrRead, id, err)
	}
	return info.Size(), nil
}

// CloseAll implements Store.
func (s *FileStore) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for f := range s.handles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.handles, f)
	}
	return firstErr
}

// RemoveAll implements Store.
func (s *FileStore) RemoveAll() error {
	if err := s.CloseAll(); err != nil {
		s.logger.Debug("Failed to close scratch file", "error", err)
	}
	s.logger.Debug("🧹 Removing scratch directory", "dir", s.dir)
	return os.RemoveAll(s.dir)
}

func (s *FileStore) track(f *os.File) *trackedFile {
	s.mu.Lock()
	s.handles[f] = struct{}{}
	s.mu.Unlock()
	return &trackedFile{File: f, store: s}
}

// trackedFile forgets itself when closed so CloseAll does not double close.
type trackedFile struct {
	*os.File
	store *FileStore
}

func (t *trackedFile) Close() error {
	t.store.mu.Lock()
	_, open := t.store.handles[t.File]
	delete(t.store.handles, t.File)
	t.store.mu.Unlock()

	if !open {
		return nil
	}
	return t.File.Close()
}
