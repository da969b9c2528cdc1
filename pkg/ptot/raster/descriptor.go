// Package raster holds the image descriptor shared by the PNG decoder and the
// output encoders.
package raster

import (
	"fmt"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// MaxPaletteSize is the largest number of palette entries.
const MaxPaletteSize = 256

// Unit specifiers carried by pHYs, oFFs and sCAL.
const (
	UnitNone       = 0 // pHYs: aspect ratio only
	UnitMeter      = 1 // pHYs, sCAL
	UnitPixel      = 0 // oFFs
	UnitMicrometer = 1 // oFFs
	UnitRadian     = 2 // sCAL
)

// Keyword is a text keyword with a dedicated slot in the descriptor.
type Keyword int

const (
	KeywordAuthor Keyword = iota
	KeywordCopyright
	KeywordSoftware
	KeywordSource
	KeywordTitle
	NumKeywords
)

var keywordNames = [NumKeywords]string{"Author", "Copyright", "Software", "Source", "Title"}

func (k Keyword) String() string {
	if k < 0 || k >= NumKeywords {
		return fmt.Sprintf("Keyword(%d)", int(k))
	}
	return keywordNames[k]
}

// LookupKeyword matches a text chunk keyword exactly (case-sensitive).
func LookupKeyword(name string) (Keyword, bool) {
	for i, kw := range keywordNames {
		if kw == name {
			return Keyword(i), true
		}
	}
	return 0, false
}

// Descriptor describes an image being converted. It is filled in chunk by
// chunk and consumed once by an encoder.
type Descriptor struct {
	Width    uint32
	Height   uint32
	BitDepth int

	IsColor         bool
	IsPalette       bool
	HasAlpha        bool
	SamplesPerPixel int
	Interlaced      bool

	Palette [][3]byte

	HasTransparency bool
	PaletteAlpha    []byte    // palette images, one byte per entry
	TransparentRGB  [3]uint16 // truecolor; grayscale uses index 0

	Gamma          float64  // 0 when absent
	Chromaticities [8]uint32 // white x,y then red, green, blue x,y; scaled by 100000

	XResolution    uint32
	YResolution    uint32
	ResolutionUnit uint8

	XOffset    uint32
	YOffset    uint32
	OffsetUnit uint8

	ScaleUnit uint8
	XScale    float64
	YScale    float64

	Text [NumKeywords]*string

	PixelBlob  string // scratch id of the reconstructed raster
	ExtraBlob  string // scratch id of copied chunks, empty when none
	ExtraBytes int64
}

// PaletteSize returns the number of palette entries.
func (d *Descriptor) PaletteSize() int {
	return len(d.Palette)
}

// SetText stores the value for a keyword slot.
func (d *Descriptor) SetText(k Keyword, value string) {
	d.Text[k] = &value
}

// RowBytes returns the number of packed bytes in one row of an interlace pass
// that begins at column start and takes every step-th pixel. A pass that has
// no pixels in a row returns 0.
func (d *Descriptor) RowBytes(start, step int) int {
	if int(d.Width) <= start {
		return 0
	}
	pixels := (int(d.Width)-start-1)/step + 1

	if d.BitDepth < 8 {
		return (d.BitDepth*(pixels-1))/8 + 1
	}
	return pixels * d.SamplesPerPixel * (d.BitDepth / 8)
}

// FilterOffset is the distance in bytes between a byte and the corresponding
// byte of the pixel to its left, at least 1.
func (d *Descriptor) FilterOffset() int {
	bytesPerSample := d.BitDepth / 8
	if bytesPerSample == 0 {
		bytesPerSample = 1
	}
	return d.SamplesPerPixel * bytesPerSample
}

// PixelBytes is the size of one pixel in the reconstructed raster, where
// sub-byte samples occupy a whole byte.
func (d *Descriptor) PixelBytes() int {
	if d.BitDepth == 16 {
		return 2 * d.SamplesPerPixel
	}
	return d.SamplesPerPixel
}

// RasterRowBytes is the size of one row of the reconstructed raster.
func (d *Descriptor) RasterRowBytes() int {
	return int(d.Width) * d.PixelBytes()
}

// Validate checks the invariants an encoder relies on.
func (d *Descriptor) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", perrors.ErrBadImage, d.Width, d.Height)
	}
	if d.SamplesPerPixel < 1 || d.SamplesPerPixel > 4 {
		return fmt.Errorf("%w: %d samples per pixel", perrors.ErrBadImage, d.SamplesPerPixel)
	}
	if d.IsPalette && (d.PaletteSize() < 1 || d.PaletteSize() > MaxPaletteSize) {
		return fmt.Errorf("%w: palette of %d entries", perrors.ErrBadImage, d.PaletteSize())
	}
	if err := d.CheckLimits(); err != nil {
		return err
	}
	if d.PixelBlob == "" {
		return fmt.Errorf("%w: no pixel data", perrors.ErrBadImage)
	}
	return nil
}
