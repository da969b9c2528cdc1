// Package png decodes PNG files into a raster.Descriptor plus a reconstructed
// pixel blob in scratch storage. It is tolerant: damaged but readable input is
// reported through diag warnings and decoded as well as possible.
package png

// Signature is the 8-byte PNG file signature.
const Signature = "\x89PNG\r\n\x1a\n"

// ChunkType is the 4-character chunk identifier.
type ChunkType [4]byte

// Chunk types handled by the decoder.
var (
	TypeIHDR = ChunkType{'I', 'H', 'D', 'R'}
	TypePLTE = ChunkType{'P', 'L', 'T', 'E'}
	TypeIDAT = ChunkType{'I', 'D', 'A', 'T'}
	TypeIEND = ChunkType{'I', 'E', 'N', 'D'}
	TypeTRNS = ChunkType{'t', 'R', 'N', 'S'}
	TypeGAMA = ChunkType{'g', 'A', 'M', 'A'}
	TypeCHRM = ChunkType{'c', 'H', 'R', 'M'}
	TypePHYS = ChunkType{'p', 'H', 'Y', 's'}
	TypeOFFS = ChunkType{'o', 'F', 'F', 's'}
	TypeSCAL = ChunkType{'s', 'C', 'A', 'L'}
	TypeTEXT = ChunkType{'t', 'E', 'X', 't'}
	TypeZTXT = ChunkType{'z', 'T', 'X', 't'}
	TypeTIME = ChunkType{'t', 'I', 'M', 'E'}
	TypeHIST = ChunkType{'h', 'I', 'S', 'T'}
	TypeBKGD = ChunkType{'b', 'K', 'G', 'D'}
	TypeSBIT = ChunkType{'s', 'B', 'I', 'T'}
)

// Property bit carried by bit 5 (the ASCII case bit) of each type byte.
const propertyBit = 0x20

func (t ChunkType) String() string {
	return string(t[:])
}

// IsAlpha reports whether all four bytes are ASCII letters.
func (t ChunkType) IsAlpha() bool {
	for _, b := range t {
		if !(b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z') {
			return false
		}
	}
	return true
}

// IsCritical reports whether the chunk is required to display the image
// (uppercase first letter).
func (t ChunkType) IsCritical() bool {
	return t[0]&propertyBit == 0
}

// IsSafeToCopy reports whether an editor that does not understand the chunk
// may still copy it to a modified file (lowercase last letter).
func (t ChunkType) IsSafeToCopy() bool {
	return t[3]&propertyBit != 0
}

// PNG colour type bits.
const (
	colorBitPalette = 1
	colorBitColor   = 2
	colorBitAlpha   = 4
)

// Row filter types.
const (
	FilterNone    = 0
	FilterSub     = 1
	FilterUp      = 2
	FilterAverage = 3
	FilterPaeth   = 4

	filterUnset = -1
)
