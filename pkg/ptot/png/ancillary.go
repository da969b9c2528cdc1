package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/provide-io/ptot/pkg/ptot/diag"
	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
	"github.com/provide-io/ptot/pkg/ptot/raster"
)

const headerLength = 13

// decodeHeader decodes IHDR.
func (d *Decoder) decodeHeader() error {
	if d.seenHeader {
		d.reporter.Warn(diag.WarnIllegalHeader, TypeIHDR.String(), "duplicate header ignored")
		return d.cr.Skip()
	}
	if d.cr.Remaining() < headerLength {
		return fmt.Errorf("%w: IHDR is %d bytes", perrors.ErrBadHeader, d.cr.Remaining())
	}
	buf, err := d.cr.ReadBody(headerLength)
	if err != nil {
		return err
	}

	img := d.img
	img.Width = binary.BigEndian.Uint32(buf[0:4])
	img.Height = binary.BigEndian.Uint32(buf[4:8])
	img.BitDepth = int(buf[8])
	colorType := buf[9]

	if buf[10] != 0 {
		return fmt.Errorf("%w: compression method %d", perrors.ErrBadHeader, buf[10])
	}
	if buf[11] != 0 {
		return fmt.Errorf("%w: filter method %d", perrors.ErrBadHeader, buf[11])
	}
	switch buf[12] {
	case 0:
		img.Interlaced = false
	case 1:
		img.Interlaced = true
	default:
		return fmt.Errorf("%w: interlace method %d", perrors.ErrBadHeader, buf[12])
	}

	img.IsPalette = colorType&colorBitPalette != 0
	img.IsColor = colorType&colorBitColor != 0
	img.HasAlpha = colorType&colorBitAlpha != 0

	img.SamplesPerPixel = 1
	if img.IsColor && !img.IsPalette {
		img.SamplesPerPixel = 3
	}
	if img.HasAlpha {
		img.SamplesPerPixel++
	}

	if img.IsPalette && img.HasAlpha {
		d.reporter.Warn(diag.WarnIllegalHeader, TypeIHDR.String(), "palette image with alpha channel")
	}

	switch img.BitDepth {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: %d", perrors.ErrUnsupportedDepth, img.BitDepth)
	}
	if img.BitDepth > 8 && img.IsPalette {
		d.reporter.Warn(diag.WarnIllegalHeader, TypeIHDR.String(), fmt.Sprintf("palette image with bit depth %d", img.BitDepth))
	}
	if img.BitDepth < 8 && (colorType == 2 || colorType == 4 || colorType == 6) {
		return fmt.Errorf("%w: colour type %d at depth %d", perrors.ErrIllegalColorDepth, colorType, img.BitDepth)
	}

	d.seenHeader = true
	d.logger.Debug("🔍 Header",
		"width", img.Width, "height", img.Height, "depth", img.BitDepth,
		"color_type", colorType, "interlaced", img.Interlaced)
	return nil
}

// decodePalette decodes PLTE. A palette in a non-palette colour image is
// only a suggestion and is skipped.
func (d *Decoder) decodePalette() error {
	img := d.img
	if !img.IsPalette {
		return d.cr.Skip()
	}
	if !img.IsColor {
		d.reporter.Warn(diag.WarnPaletteOnGray, TypePLTE.String(), "")
	}
	if img.PaletteSize() > 0 {
		d.reporter.Warn(diag.WarnMultiplePalette, TypePLTE.String(), "")
		return d.cr.Skip()
	}

	size := int(d.cr.Remaining() / 3)
	if size > raster.MaxPaletteSize {
		size = raster.MaxPaletteSize
	}
	if size == 0 {
		return fmt.Errorf("%w: empty palette", perrors.ErrBadFraming)
	}

	buf, err := d.cr.ReadBody(3 * size)
	if err != nil {
		return err
	}
	img.Palette = make([][3]byte, size)
	for i := range img.Palette {
		copy(img.Palette[i][:], buf[3*i:3*i+3])
	}
	d.logger.Debug("🎨 Palette", "entries", size)
	return nil
}

// decodeTransparency decodes tRNS.
func (d *Decoder) decodeTransparency() error {
	img := d.img
	if img.HasTransparency {
		d.reporter.Warn(diag.WarnMultipleTransparency, TypeTRNS.String(), "")
	}

	switch {
	case img.IsPalette:
		if img.PaletteSize() == 0 {
			d.reporter.Warn(diag.WarnLateTransparency, TypeTRNS.String(), "")
		}
		n := int(d.cr.Remaining())
		if n > raster.MaxPaletteSize {
			n = raster.MaxPaletteSize
		}
		buf, err := d.cr.ReadBody(n)
		if err != nil {
			return err
		}
		alpha := make([]byte, max(n, img.PaletteSize()))
		copy(alpha, buf)
		for i := n; i < len(alpha); i++ {
			alpha[i] = 0xFF
		}
		img.PaletteAlpha = alpha

	case img.IsColor:
		buf, err := d.cr.ReadBody(6)
		if err != nil {
			return err
		}
		for i := range img.TransparentRGB {
			img.TransparentRGB[i] = binary.BigEndian.Uint16(buf[2*i:])
		}

	default:
		buf, err := d.cr.ReadBody(2)
		if err != nil {
			return err
		}
		img.TransparentRGB[0] = binary.BigEndian.Uint16(buf)
	}

	img.HasTransparency = true
	return nil
}

// decodeGamma decodes gAMA.
func (d *Decoder) decodeGamma() error {
	if d.img.PaletteSize() > 0 {
		d.reporter.Warn(diag.WarnLateGamma, TypeGAMA.String(), "")
	}
	buf, err := d.cr.ReadBody(4)
	if err != nil {
		return err
	}
	d.img.Gamma = float64(binary.BigEndian.Uint32(buf)) / 100000
	return nil
}

// decodeChromaticities decodes cHRM.
func (d *Decoder) decodeChromaticities() error {
	buf, err := d.cr.ReadBody(32)
	if err != nil {
		return err
	}
	for i := range d.img.Chromaticities {
		d.img.Chromaticities[i] = binary.BigEndian.Uint32(buf[4*i:])
	}
	return nil
}

// decodePhysical decodes pHYs.
func (d *Decoder) decodePhysical() error {
	buf, err := d.cr.ReadBody(9)
	if err != nil {
		return err
	}
	d.img.XResolution = binary.BigEndian.Uint32(buf[0:4])
	d.img.YResolution = binary.BigEndian.Uint32(buf[4:8])
	d.img.ResolutionUnit = buf[8]
	if d.img.ResolutionUnit > raster.UnitMeter {
		d.reporter.Warn(diag.WarnBadUnit, TypePHYS.String(), fmt.Sprintf("unit %d", buf[8]))
	}
	return nil
}

// decodeOffset decodes oFFs.
func (d *Decoder) decodeOffset() error {
	buf, err := d.cr.ReadBody(9)
	if err != nil {
		return err
	}
	d.img.XOffset = binary.BigEndian.Uint32(buf[0:4])
	d.img.YOffset = binary.BigEndian.Uint32(buf[4:8])
	d.img.OffsetUnit = buf[8]
	if d.img.OffsetUnit > raster.UnitMicrometer {
		d.reporter.Warn(diag.WarnBadUnit, TypeOFFS.String(), fmt.Sprintf("unit %d", buf[8]))
	}
	return nil
}

// decodeScale decodes sCAL: a unit byte and two NUL separated ASCII
// floating point numbers.
func (d *Decoder) decodeScale() error {
	if d.cr.Remaining() < 1 {
		return fmt.Errorf("%w: empty sCAL", perrors.ErrBadFraming)
	}
	body, err := d.cr.ReadRest()
	if err != nil {
		return err
	}

	d.img.ScaleUnit = body[0]
	if d.img.ScaleUnit < raster.UnitMeter || d.img.ScaleUnit > raster.UnitRadian {
		d.reporter.Warn(diag.WarnBadUnit, TypeSCAL.String(), fmt.Sprintf("unit %d", body[0]))
	}

	fields := bytes.SplitN(body[1:], []byte{0}, 3)
	d.img.XScale = parseScale(fields, 0)
	d.img.YScale = parseScale(fields, 1)
	return nil
}

// parseScale reads a leading floating point number, 0 when there is none.
func parseScale(fields [][]byte, i int) float64 {
	if i >= len(fields) {
		return 0
	}
	s := string(bytes.TrimSpace(fields[i]))
	for end := len(s); end > 0; end-- {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
