package pkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m.Set(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestConvertFileWithLogLevel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTOT_SCRATCH", "memory")
	t.Setenv("PTOT_FORMAT", "")

	in := writePNG(t, dir)
	out := filepath.Join(dir, "out.tif")
	res, err := ConvertFileWithLogLevel(in, out, "error")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), res.Width)
	assert.FileExists(t, out)
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTOT_SCRATCH", "memory")

	res, err := CheckFile(writePNG(t, dir))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	_, err = CheckFile(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrRead)
	assert.NotZero(t, ExitCode(err))
}
