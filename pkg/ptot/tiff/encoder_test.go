package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"sort"
	"testing"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
	"github.com/provide-io/ptot/pkg/ptot/scratch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xtiff "golang.org/x/image/tiff"
)

func TestEncodeMinimalRGB(t *testing.T) {
	img := &raster.Descriptor{
		Width: 1, Height: 1, BitDepth: 8,
		IsColor: true, SamplesPerPixel: 3,
		PixelBlob: scratch.PixelsBlob,
	}
	store := storeImage(t, []byte{10, 20, 30}, nil)

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		data := encodeFile(t, img, store, order)
		f := parseFile(t, data)

		assert.Equal(t, order, f.order)
		assert.Equal(t, []uint32{1}, f.longs(t, TagImageWidth))
		assert.Equal(t, []uint32{1}, f.longs(t, TagImageLength))
		assert.Equal(t, []uint16{3}, f.shorts(t, TagSamplesPerPixel))
		assert.Equal(t, []uint16{8, 8, 8}, f.shorts(t, TagBitsPerSample))
		assert.Equal(t, []uint16{photometricRGB}, f.shorts(t, TagPhotometric))
		assert.Equal(t, []uint16{compressionNone}, f.shorts(t, TagCompression))
		assert.Equal(t, []uint16{planarContiguous}, f.shorts(t, TagPlanarConfiguration))
		assert.Equal(t, []uint32{3}, f.longs(t, TagStripByteCounts))
		assert.Equal(t, []byte{10, 20, 30}, f.stripData(t))
		_, hasAlpha := f.entries[TagExtraSamples]
		assert.False(t, hasAlpha)

		m, err := xtiff.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		r, g, b, a := m.At(0, 0).RGBA()
		assert.Equal(t, []uint32{10 * 257, 20 * 257, 30 * 257, 0xFFFF}, []uint32{r, g, b, a})
	}
}

func TestEncodeHostOrder(t *testing.T) {
	img := &raster.Descriptor{Width: 1, Height: 1, BitDepth: 8, SamplesPerPixel: 1, PixelBlob: scratch.PixelsBlob}
	data := encodeFile(t, img, storeImage(t, []byte{7}, nil), nil)
	marker := orderMarker(HostOrder())
	assert.Equal(t, marker[:], data[0:2])
}

func TestEncodeDecodesWithXImage(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	palette := [][3]byte{{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {9, 99, 199}}
	paletteColor := func(i byte) color.Color {
		p := palette[int(i)%len(palette)]
		return color.RGBA{p[0], p[1], p[2], 255}
	}

	tests := []struct {
		name   string
		img    raster.Descriptor
		pixels func() []byte
		want   func(pixels []byte, x, y, w int) color.Color
	}{
		{
			name: "gray8 odd strips",
			img:  raster.Descriptor{Width: 37, Height: 500, BitDepth: 8, SamplesPerPixel: 1},
			want: func(p []byte, x, y, w int) color.Color { return color.Gray{p[y*w+x]} },
		},
		{
			name: "gray16",
			img:  raster.Descriptor{Width: 13, Height: 9, BitDepth: 16, SamplesPerPixel: 1},
			want: func(p []byte, x, y, w int) color.Color {
				return color.Gray16{binary.BigEndian.Uint16(p[2*(y*w+x):])}
			},
		},
		{
			name: "rgb8 many strips",
			img:  raster.Descriptor{Width: 200, Height: 100, BitDepth: 8, IsColor: true, SamplesPerPixel: 3},
			want: func(p []byte, x, y, w int) color.Color {
				i := 3 * (y*w + x)
				return color.RGBA{p[i], p[i+1], p[i+2], 255}
			},
		},
		{
			name: "rgba8",
			img:  raster.Descriptor{Width: 11, Height: 6, BitDepth: 8, IsColor: true, HasAlpha: true, SamplesPerPixel: 4},
			want: func(p []byte, x, y, w int) color.Color {
				i := 4 * (y*w + x)
				return color.NRGBA{p[i], p[i+1], p[i+2], p[i+3]}
			},
		},
		{
			name: "gray1",
			img:  raster.Descriptor{Width: 17, Height: 5, BitDepth: 1, SamplesPerPixel: 1},
			pixels: func() []byte {
				p := make([]byte, 17*5)
				for i := range p {
					p[i] = byte(rng.Intn(2) * 255)
				}
				return p
			},
			want: func(p []byte, x, y, w int) color.Color { return color.Gray{p[y*w+x]} },
		},
		{
			name: "palette8",
			img: raster.Descriptor{Width: 10, Height: 10, BitDepth: 8, IsColor: true, IsPalette: true,
				SamplesPerPixel: 1, Palette: palette},
			pixels: func() []byte {
				p := make([]byte, 100)
				for i := range p {
					p[i] = byte(rng.Intn(len(palette)))
				}
				return p
			},
			want: func(p []byte, x, y, w int) color.Color { return paletteColor(p[y*w+x]) },
		},
	}

	for _, tt := range tests {
		for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
			t.Run(tt.name+"/"+order.String(), func(t *testing.T) {
				img := tt.img
				img.PixelBlob = scratch.PixelsBlob

				var pixels []byte
				if tt.pixels != nil {
					pixels = tt.pixels()
				} else {
					pixels = make([]byte, img.RasterRowBytes()*int(img.Height))
					rng.Read(pixels)
				}

				data := encodeFile(t, &img, storeImage(t, pixels, nil), order)
				f := parseFile(t, data)
				assert.True(t, sort.SliceIsSorted(f.tags, func(i, j int) bool { return f.tags[i] < f.tags[j] }))
				if img.HasAlpha {
					assert.Equal(t, []uint16{extraSampleUnassociatedAlpha}, f.shorts(t, TagExtraSamples))
				}

				m, err := xtiff.Decode(bytes.NewReader(data))
				require.NoError(t, err)
				require.Equal(t, image.Rect(0, 0, int(img.Width), int(img.Height)), m.Bounds())

				w := int(img.Width)
				for y := 0; y < int(img.Height); y++ {
					for x := 0; x < w; x++ {
						wr, wg, wb, wa := tt.want(pixels, x, y, w).RGBA()
						gr, gg, gb, ga := m.At(x, y).RGBA()
						require.Equal(t, []uint32{wr, wg, wb, wa}, []uint32{gr, gg, gb, ga}, "pixel %d,%d", x, y)
					}
				}
			})
		}
	}
}

// x/image/tiff cannot read 4-bit palette images, so the strips are unpacked
// here.
func TestEncodePalette4(t *testing.T) {
	palette := [][3]byte{{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {9, 99, 199}}
	const width, height = 9, 4
	img := &raster.Descriptor{
		Width: width, Height: height, BitDepth: 4,
		IsColor: true, IsPalette: true, SamplesPerPixel: 1,
		Palette: palette, PixelBlob: scratch.PixelsBlob,
	}

	// The raster holds one byte per pixel, scaled so index i reads i*17.
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i%len(palette)) * 17
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			f := parseFile(t, encodeFile(t, img, storeImage(t, pixels, nil), order))

			assert.Equal(t, []uint16{4}, f.shorts(t, TagBitsPerSample))
			assert.Equal(t, []uint16{photometricPalette}, f.shorts(t, TagPhotometric))

			cmap := f.shorts(t, TagColorMap)
			require.Len(t, cmap, 3*16)
			assert.Equal(t, uint16(255*257), cmap[1])
			assert.Equal(t, uint16(255*257), cmap[16+2])
			assert.Equal(t, uint16(199*257), cmap[32+4])
			assert.Zero(t, cmap[15])

			rowBytes := (width + 1) / 2
			strips := f.stripData(t)
			require.Len(t, strips, rowBytes*height)
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					b := strips[y*rowBytes+x/2]
					index := b >> 4
					if x%2 == 1 {
						index = b & 0x0F
					}
					assert.Equal(t, pixels[y*width+x]/17, index, "pixel %d,%d", x, y)
				}
				assert.Zero(t, strips[y*rowBytes+rowBytes-1]&0x0F, "row %d padding", y)
			}
		})
	}
}

func TestEncodeColorMap(t *testing.T) {
	img := &raster.Descriptor{
		Width: 2, Height: 1, BitDepth: 2, IsColor: true, IsPalette: true, SamplesPerPixel: 1,
		Palette: [][3]byte{{1, 2, 3}, {0xFF, 0x80, 0}},
	}
	assert.Equal(t, []uint16{
		0x0101, 0xFFFF, 0, 0,
		0x0202, 0x8080, 0, 0,
		0x0303, 0x0000, 0, 0,
	}, ColorMap(img))
}

func TestEncodeExtendedTags(t *testing.T) {
	author := "Jane Doe"
	title := "Sunset"
	extra := []byte("\x00\x00\x00\x03prVt\x01\x02\x03\xde\xad\xbe\xef")

	img := &raster.Descriptor{
		Width: 4, Height: 2, BitDepth: 8, SamplesPerPixel: 1,
		Gamma:          0.45455,
		Chromaticities: [8]uint32{31270, 32900, 64000, 33000, 30000, 60000, 15000, 6000},
		XResolution:    2835, YResolution: 2835, ResolutionUnit: raster.UnitMeter,
		XOffset: 100, YOffset: 200, OffsetUnit: raster.UnitPixel,
		PixelBlob: scratch.PixelsBlob,
		ExtraBlob: scratch.ExtraBlob, ExtraBytes: int64(len(extra)),
	}
	img.Text[raster.KeywordAuthor] = &author
	img.Text[raster.KeywordTitle] = &title

	data := encodeFile(t, img, storeImage(t, make([]byte, 8), extra), binary.BigEndian)
	f := parseFile(t, data)

	assert.Equal(t, []uint16{resolutionUnitCentimeter}, f.shorts(t, TagResolutionUnit))
	assert.Equal(t, []uint32{2835, 100}, f.longs(t, TagXResolution))
	assert.Equal(t, []uint32{2835, 100}, f.longs(t, TagYResolution))
	assert.Equal(t, []uint32{35273, 10000}, f.longs(t, TagXPosition))
	assert.Equal(t, []uint32{70546, 10000}, f.longs(t, TagYPosition))
	assert.Equal(t, []uint32{31270, 100000, 32900, 100000}, f.longs(t, TagWhitePoint))
	assert.Equal(t, []uint32{64000, 100000, 33000, 100000, 30000, 100000, 60000, 100000, 15000, 100000, 6000, 100000},
		f.longs(t, TagPrimaryChromaticities))
	assert.Equal(t, author, f.ascii(t, TagArtist))
	assert.Equal(t, title, f.ascii(t, TagImageDescription))
	_, hasCopyright := f.entries[TagCopyright]
	assert.False(t, hasCopyright)

	transfer := f.shorts(t, TagTransferFunction)
	assert.Equal(t, TransferFunction(8, 0.45455), transfer)

	chunks := f.entries[TagPNGChunks]
	assert.Equal(t, TypeUndefined, chunks.Type)
	assert.Equal(t, extra, chunks.Data)

	assert.True(t, sort.SliceIsSorted(f.tags, func(i, j int) bool { return f.tags[i] < f.tags[j] }))

	_, err := xtiff.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestEncodePositionUnits(t *testing.T) {
	t.Run("no resolution assumes 72 per inch", func(t *testing.T) {
		img := &raster.Descriptor{Width: 1, Height: 1, BitDepth: 8, SamplesPerPixel: 1,
			XOffset: 9, YOffset: 18, PixelBlob: scratch.PixelsBlob}
		f := parseFile(t, encodeFile(t, img, storeImage(t, []byte{0}, nil), binary.LittleEndian))

		assert.Equal(t, []uint16{resolutionUnitCentimeter}, f.shorts(t, TagResolutionUnit))
		assert.Equal(t, []uint32{3175, 10000}, f.longs(t, TagXPosition))
		assert.Equal(t, []uint32{6350, 10000}, f.longs(t, TagYPosition))
		_, hasRes := f.entries[TagXResolution]
		assert.False(t, hasRes)
	})

	t.Run("aspect ratio only drops position", func(t *testing.T) {
		img := &raster.Descriptor{Width: 1, Height: 1, BitDepth: 8, SamplesPerPixel: 1,
			XResolution: 2, YResolution: 1, ResolutionUnit: raster.UnitNone,
			XOffset: 9, YOffset: 18, PixelBlob: scratch.PixelsBlob}
		f := parseFile(t, encodeFile(t, img, storeImage(t, []byte{0}, nil), binary.LittleEndian))

		assert.Equal(t, []uint16{resolutionUnitNone}, f.shorts(t, TagResolutionUnit))
		assert.Equal(t, []uint32{2, 100}, f.longs(t, TagXResolution))
		_, hasPos := f.entries[TagXPosition]
		assert.False(t, hasPos)
	})
}

func TestEncodeShortPixelDataIsZeroFilled(t *testing.T) {
	img := &raster.Descriptor{Width: 2, Height: 2, BitDepth: 8, SamplesPerPixel: 1, PixelBlob: scratch.PixelsBlob}
	f := parseFile(t, encodeFile(t, img, storeImage(t, []byte{5, 6, 7}, nil), binary.LittleEndian))
	assert.Equal(t, []byte{5, 6, 7, 0}, f.stripData(t))
}

func TestEncodeRejectsInvalidImage(t *testing.T) {
	img := &raster.Descriptor{Width: 0, Height: 1, BitDepth: 8, SamplesPerPixel: 1, PixelBlob: scratch.PixelsBlob}
	enc := NewEncoder(nil, binary.LittleEndian, scratch.NewMemStore(), nil)
	err := enc.Encode(img)
	assert.True(t, errors.Is(err, perrors.ErrBadImage), "got %v", err)
}
