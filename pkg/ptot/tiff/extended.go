package tiff

import (
	"math"

	"github.com/provide-io/ptot/pkg/ptot/raster"
)

// keywordTags maps text keyword slots to ASCII tags.
var keywordTags = [raster.NumKeywords]uint16{
	raster.KeywordAuthor:    TagArtist,
	raster.KeywordCopyright: TagCopyright,
	raster.KeywordSoftware:  TagSoftware,
	raster.KeywordSource:    TagModel,
	raster.KeywordTitle:     TagImageDescription,
}

const (
	resolutionDenominator = 100    // pixels per metre to pixels per cm
	positionDenominator   = 10000  // micrometres to cm
	chromaDenominator     = 100000 // PNG chromaticity scale
)

// writeExtendedTags writes resolution, position, chromaticity, text and
// transfer function tags.
func (e *Encoder) writeExtendedTags(img *raster.Descriptor) error {
	unit := uint16(resolutionUnitUnassigned)

	if img.XResolution != 0 {
		unit = resolutionUnitCentimeter
		if img.ResolutionUnit == raster.UnitNone {
			unit = resolutionUnitNone
		}
		if err := e.addShort(TagResolutionUnit, unit); err != nil {
			return err
		}
		if err := e.addRational(TagXResolution, img.XResolution, resolutionDenominator); err != nil {
			return err
		}
		if err := e.addRational(TagYResolution, img.YResolution, resolutionDenominator); err != nil {
			return err
		}
	}

	// Positions share the resolution unit, which PNG keeps separately.
	// There is no position without a unit.
	if img.XOffset != 0 && unit != resolutionUnitNone {
		if _, ok := e.dir.Lookup(TagResolutionUnit); !ok {
			unit = resolutionUnitCentimeter
			if err := e.addShort(TagResolutionUnit, unit); err != nil {
				return err
			}
		}
		x, y := positionMicrometres(img)
		if err := e.addRational(TagXPosition, x, positionDenominator); err != nil {
			return err
		}
		if err := e.addRational(TagYPosition, y, positionDenominator); err != nil {
			return err
		}
	}

	if img.Chromaticities[0] != 0 {
		white := make([]uint32, 0, 4)
		for _, v := range img.Chromaticities[:2] {
			white = append(white, v, chromaDenominator)
		}
		if err := e.addRational(TagWhitePoint, white...); err != nil {
			return err
		}
		primaries := make([]uint32, 0, 12)
		for _, v := range img.Chromaticities[2:] {
			primaries = append(primaries, v, chromaDenominator)
		}
		if err := e.addRational(TagPrimaryChromaticities, primaries...); err != nil {
			return err
		}
	}

	for kw, text := range img.Text {
		if text == nil {
			continue
		}
		if err := e.addASCII(keywordTags[kw], *text); err != nil {
			return err
		}
	}

	if img.Gamma != 0 {
		if err := e.addShort(TagTransferFunction, TransferFunction(img.BitDepth, img.Gamma)...); err != nil {
			return err
		}
	}
	return nil
}

// positionMicrometres converts the image offset to micrometres. Pixel
// offsets use the physical resolution when there is one and 72 pixels per
// inch otherwise. The arithmetic is 32-bit; large offsets are scaled down
// by a power of two bias before multiplying.
func positionMicrometres(img *raster.Descriptor) (uint32, uint32) {
	if img.OffsetUnit == raster.UnitMicrometer {
		return img.XOffset, img.YOffset
	}
	if img.ResolutionUnit == raster.UnitNone {
		return img.XOffset * 3175 / 9, img.YOffset * 3175 / 9
	}

	longSide := max(img.XOffset, img.YOffset)
	bias := uint32(1)
	for longSide > 2000 {
		bias *= 2
		longSide /= 2
	}
	return scaledDiv(img.XOffset, bias, img.XResolution), scaledDiv(img.YOffset, bias, img.YResolution)
}

func scaledDiv(offset, bias, resolution uint32) uint32 {
	divisor := resolution / bias
	if divisor == 0 {
		divisor = 1
	}
	return offset * (1000000 / bias) / divisor
}

// TransferFunction builds the 2^depth entry table for a source gamma.
// Entry 0 is 0 and entry i is round(65535 * (i/max)^(1/gamma)).
func TransferFunction(depth int, gamma float64) []uint16 {
	count := 1 << depth
	table := make([]uint16, count)
	maxVal := float64(count - 1)
	for i := 1; i < count; i++ {
		table[i] = uint16(math.Floor(0.5 + 65535*math.Pow(float64(i)/maxVal, 1/gamma)))
	}
	return table
}
