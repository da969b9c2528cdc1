package tiff

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
	"github.com/stretchr/testify/require"
)

type parsedEntry struct {
	Type  DataType
	Count uint32
	Data  []byte
}

type parsedFile struct {
	order   binary.ByteOrder
	tags    []uint16
	entries map[uint16]parsedEntry
	data    []byte
}

func (p parsedFile) shorts(t *testing.T, tag uint16) []uint16 {
	t.Helper()
	e, ok := p.entries[tag]
	require.True(t, ok, "tag %d missing", tag)
	require.Equal(t, TypeShort, e.Type)
	out := make([]uint16, e.Count)
	for i := range out {
		out[i] = p.order.Uint16(e.Data[2*i:])
	}
	return out
}

func (p parsedFile) longs(t *testing.T, tag uint16) []uint32 {
	t.Helper()
	e, ok := p.entries[tag]
	require.True(t, ok, "tag %d missing", tag)
	require.True(t, e.Type == TypeLong || e.Type == TypeRational, "tag %d type %d", tag, e.Type)
	n := e.Count
	if e.Type == TypeRational {
		n *= 2
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = p.order.Uint32(e.Data[4*i:])
	}
	return out
}

func (p parsedFile) ascii(t *testing.T, tag uint16) string {
	t.Helper()
	e, ok := p.entries[tag]
	require.True(t, ok, "tag %d missing", tag)
	require.Equal(t, TypeASCII, e.Type)
	require.Equal(t, byte(0), e.Data[len(e.Data)-1])
	return string(e.Data[:len(e.Data)-1])
}

// parseFile reads the header and directory of a TIFF file.
func parseFile(t *testing.T, data []byte) parsedFile {
	t.Helper()
	require.GreaterOrEqual(t, len(data), headerSize)

	var order binary.ByteOrder
	switch string(data[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		t.Fatalf("bad byte order marker %q", data[0:2])
	}
	require.Equal(t, uint16(magicNumber), order.Uint16(data[2:4]))

	ifd := order.Uint32(data[4:8])
	require.Zero(t, ifd%2, "directory must be word aligned")
	count := int(order.Uint16(data[ifd:]))
	end := int(ifd) + 2 + directoryEntrySize*count + 4
	require.Equal(t, len(data), end, "directory is the last thing in the file")
	require.Equal(t, []byte{0, 0, 0, 0}, data[end-4:end], "single image")

	p := parsedFile{order: order, entries: make(map[uint16]parsedEntry), data: data}
	for i := 0; i < count; i++ {
		raw := data[int(ifd)+2+directoryEntrySize*i:]
		tag := order.Uint16(raw[0:2])
		typ := DataType(order.Uint16(raw[2:4]))
		n := order.Uint32(raw[4:8])
		size := int(n) * typ.Size()

		var value []byte
		if size <= 4 {
			value = raw[8 : 8+size]
		} else {
			off := order.Uint32(raw[8:12])
			require.Zero(t, off%2, "tag %d value at odd offset", tag)
			value = data[off : int(off)+size]
		}
		p.tags = append(p.tags, tag)
		p.entries[tag] = parsedEntry{Type: typ, Count: n, Data: value}
	}
	return p
}

// stripData concatenates the strips of a parsed file.
func (p parsedFile) stripData(t *testing.T) []byte {
	offsets := p.longs(t, TagStripOffsets)
	counts := p.longs(t, TagStripByteCounts)
	require.Equal(t, len(offsets), len(counts))
	var out []byte
	for i := range offsets {
		out = append(out, p.data[offsets[i]:offsets[i]+counts[i]]...)
	}
	return out
}

func storeImage(t *testing.T, pixels []byte, extra []byte) *scratch.MemStore {
	t.Helper()
	store := scratch.NewMemStore()
	w, err := store.Create(scratch.PixelsBlob)
	require.NoError(t, err)
	_, err = w.Write(pixels)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	if extra != nil {
		w, err := store.Create(scratch.ExtraBlob)
		require.NoError(t, err)
		_, err = w.Write(extra)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	return store
}

// encodeFile encodes img to a temporary file and returns its content.
func encodeFile(t *testing.T, img *raster.Descriptor, store scratch.Store, order binary.ByteOrder) []byte {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out.tif"))
	require.NoError(t, err)
	defer f.Close()

	logger := hclog.New(&hclog.LoggerOptions{Name: "tiff-test", Level: hclog.Warn, Output: io.Discard})
	enc := NewEncoder(f, order, store, logger)
	require.NoError(t, enc.Encode(img))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}
