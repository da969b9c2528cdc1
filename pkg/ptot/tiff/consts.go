// Package tiff writes a raster.Descriptor and its scratch pixel data as a
// single-image, uncompressed, strip-organised TIFF file.
package tiff

// DataType is a TIFF field type.
type DataType uint16

const (
	TypeByte      DataType = 1
	TypeASCII     DataType = 2
	TypeShort     DataType = 3
	TypeLong      DataType = 4
	TypeRational  DataType = 5
	TypeSByte     DataType = 6
	TypeUndefined DataType = 7
	TypeSShort    DataType = 8
	TypeSLong     DataType = 9
	TypeSRational DataType = 10
	TypeFloat     DataType = 11
	TypeDouble    DataType = 12
)

// dataSizes is the size in bytes of one value of each type.
var dataSizes = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Size returns the size in bytes of one value, 0 for an unknown type.
func (t DataType) Size() int {
	if int(t) >= len(dataSizes) {
		return 0
	}
	return dataSizes[t]
}

// Tags written by the encoder.
const (
	TagImageWidth            uint16 = 256
	TagImageLength           uint16 = 257
	TagBitsPerSample         uint16 = 258
	TagCompression           uint16 = 259
	TagPhotometric           uint16 = 262
	TagImageDescription      uint16 = 270
	TagModel                 uint16 = 272
	TagStripOffsets          uint16 = 273
	TagSamplesPerPixel       uint16 = 277
	TagRowsPerStrip          uint16 = 278
	TagStripByteCounts       uint16 = 279
	TagXResolution           uint16 = 282
	TagYResolution           uint16 = 283
	TagPlanarConfiguration   uint16 = 284
	TagXPosition             uint16 = 286
	TagYPosition             uint16 = 287
	TagResolutionUnit        uint16 = 296
	TagTransferFunction      uint16 = 301
	TagSoftware              uint16 = 305
	TagArtist                uint16 = 315
	TagWhitePoint            uint16 = 318
	TagPrimaryChromaticities uint16 = 319
	TagColorMap              uint16 = 320
	TagExtraSamples          uint16 = 338
	TagCopyright             uint16 = 33432

	// TagPNGChunks is a private tag carrying copied PNG chunks verbatim.
	TagPNGChunks uint16 = 65000
)

// Field values.
const (
	magicNumber = 42

	compressionNone = 1

	photometricBlackIsZero = 1
	photometricRGB         = 2
	photometricPalette     = 3

	planarContiguous = 1

	extraSampleUnassociatedAlpha = 2

	resolutionUnitNone       = 1
	resolutionUnitCentimeter = 3
	resolutionUnitUnassigned = 0xFFFF
)
