package inflate

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"klauspost", "stdlib"}, Names())

	d, err := Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, d.Name())

	_, err = Get("zopfli")
	assert.True(t, errors.Is(err, perrors.ErrUnknownInflater))
}

func TestDecompressorsStopAtStreamEnd(t *testing.T) {
	payload := bytes.Repeat([]byte("scanline data "), 500)
	trailer := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	stream := append(deflate(t, payload), trailer...)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Get(name)
			require.NoError(t, err)

			src := bytes.NewReader(stream)
			r := d.NewReader(src)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, got)

			// The bytes after the DEFLATE stream are still unread.
			rest, err := io.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, trailer, rest)
		})
	}
}

func TestDecompressorsReportTruncation(t *testing.T) {
	stream := deflate(t, bytes.Repeat([]byte{1, 2, 3, 4, 5}, 1000))
	truncated := stream[:len(stream)/2]

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Get(name)
			require.NoError(t, err)
			_, err = io.ReadAll(d.NewReader(bytes.NewReader(truncated)))
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}
