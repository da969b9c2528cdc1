package scratch

import (
	"errors"
	"io"
	"os"
	"testing"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassBlob(t *testing.T) {
	assert.Equal(t, "pass0", PassBlob(0))
	assert.Equal(t, "pass6", PassBlob(6))
}

func exerciseStore(t *testing.T, s Store) {
	w, err := s.Create("blob")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	size, err := s.Size("blob")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	for i := 0; i < 2; i++ {
		r, err := s.Open("blob")
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
		require.NoError(t, r.Close())
	}

	// Re-creating truncates.
	w, err = s.Create("blob")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	size, err = s.Size("blob")
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = s.Open("missing")
	assert.True(t, errors.Is(err, perrors.ErrRead))

	require.NoError(t, s.CloseAll())
	require.NoError(t, s.RemoveAll())
	_, err = s.Open("blob")
	assert.Error(t, err)
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, NewMemStore())
}

func TestZstdStore(t *testing.T) {
	exerciseStore(t, NewZstdStore())
}

func TestZstdStoreCompresses(t *testing.T) {
	s := NewZstdStore()
	w, err := s.Create("zeros")
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 1<<16))
	require.NoError(t, err)

	_, err = s.Open("zeros")
	assert.ErrorIs(t, err, perrors.ErrRead, "blob is readable only after Close")

	require.NoError(t, w.Close())
	size, err := s.Size("zeros")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<16), size)
	assert.Less(t, s.CompressedSize("zeros"), int64(1024))

	r, err := OpenPadded(s, "zeros")
	require.NoError(t, err)
	buf := make([]byte, 1<<16+4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 1<<16+4), buf)
	require.NoError(t, r.Close())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	exerciseStore(t, s)
	_, err = os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCloseAllClosesOpenHandles(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	defer s.RemoveAll()

	w, err := s.Create("left-open")
	require.NoError(t, err)
	require.NoError(t, s.CloseAll())

	// Closing again after CloseAll is harmless.
	assert.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	assert.Error(t, err)
}

func TestOpenPadded(t *testing.T) {
	s := NewMemStore()
	w, err := s.Create("short")
	require.NoError(t, err)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := OpenPadded(s, "short")
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 8)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, buf)
}
