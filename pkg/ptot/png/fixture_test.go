package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zlib"
	"github.com/provide-io/ptot/pkg/ptot/diag"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
	"github.com/stretchr/testify/require"
)

// testChunk frames body as a chunk of type typ with a correct CRC.
func testChunk(typ string, body []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(body)))
	buf.WriteString(typ)
	buf.Write(body)
	crc := crc32.ChecksumIEEE(append([]byte(typ), body...))
	binary.Write(&buf, binary.BigEndian, crc)
	return buf.Bytes()
}

func testHeader(width, height uint32, depth, colorType, interlace byte) []byte {
	body := make([]byte, 13)
	binary.BigEndian.PutUint32(body[0:4], width)
	binary.BigEndian.PutUint32(body[4:8], height)
	body[8] = depth
	body[9] = colorType
	body[12] = interlace
	return testChunk("IHDR", body)
}

func testStream(chunks ...[]byte) []byte {
	out := []byte(Signature)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func testEnd() []byte {
	return testChunk("IEND", nil)
}

// filterRow applies a PNG row filter, the inverse of Defilter.
func filterRow(filter int, raw, prev []byte, offset int) []byte {
	out := make([]byte, len(raw))
	for x := range raw {
		var left, upLeft byte
		if x >= offset {
			left = raw[x-offset]
			upLeft = prev[x-offset]
		}
		above := prev[x]
		switch filter {
		case FilterNone:
			out[x] = raw[x]
		case FilterSub:
			out[x] = raw[x] - left
		case FilterUp:
			out[x] = raw[x] - above
		case FilterAverage:
			out[x] = raw[x] - byte((int(left)+int(above))/2)
		case FilterPaeth:
			out[x] = raw[x] - paeth(left, above, upLeft)
		}
	}
	return out
}

// encodeRows filters each packed row, cycling through the filter types, and
// returns the uncompressed pixel stream.
func encodeRows(rows [][]byte, offset int) []byte {
	var stream []byte
	var prev []byte
	for i, row := range rows {
		if prev == nil || len(prev) != len(row) {
			prev = make([]byte, len(row))
		}
		filter := i % 5
		stream = append(stream, byte(filter))
		stream = append(stream, filterRow(filter, row, prev, offset)...)
		prev = row
	}
	return stream
}

// encodeInterlaced splits an image with pixel bytes per pixel into Adam7
// passes and filters every pass row.
func encodeInterlaced(pixels []byte, width, height, pixel int) []byte {
	var stream []byte
	for p := 0; p < NumPasses; p++ {
		var rows [][]byte
		for row := passStartRow[p]; row < height; row += passRowStep[p] {
			var line []byte
			for col := passStartCol[p]; col < width; col += passColStep[p] {
				at := (row*width + col) * pixel
				line = append(line, pixels[at:at+pixel]...)
			}
			if len(line) > 0 {
				rows = append(rows, line)
			}
		}
		stream = append(stream, encodeRows(rows, pixel)...)
	}
	return stream
}

// splitRows cuts a raster into rows of width*pixel bytes.
func splitRows(pixels []byte, width, height, pixel int) [][]byte {
	rows := make([][]byte, height)
	for i := range rows {
		rows[i] = pixels[i*width*pixel : (i+1)*width*pixel]
	}
	return rows
}

func testLogger(t *testing.T) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "png-test",
		Level:  hclog.Warn,
		Output: io.Discard,
	})
}

type decodeResult struct {
	img      *raster.Descriptor
	store    *scratch.MemStore
	reporter *diag.Reporter
	err      error
}

func decodeBytes(t *testing.T, data []byte) decodeResult {
	t.Helper()
	logger := testLogger(t)
	store := scratch.NewMemStore()
	reporter := diag.NewReporter(logger)
	dec, err := NewDecoder(bytes.NewReader(data), Config{Store: store, Reporter: reporter, Logger: logger})
	require.NoError(t, err)
	img, err := dec.Decode()
	return decodeResult{img: img, store: store, reporter: reporter, err: err}
}

func (r decodeResult) blob(t *testing.T, id string) []byte {
	t.Helper()
	rc, err := r.store.Open(id)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func (r decodeResult) codes() []diag.Code {
	var codes []diag.Code
	for _, w := range r.reporter.Warnings() {
		codes = append(codes, w.Code)
	}
	return codes
}
