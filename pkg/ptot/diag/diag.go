// Package diag reports the non-fatal problems found while converting an
// image. A warning never stops the conversion.
package diag

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Code identifies a kind of warning.
type Code int

const (
	WarnHeaderNotFirst Code = iota + 1
	WarnChunkTooLong
	WarnExtraBytes
	WarnBadCRC
	WarnIllegalHeader
	WarnMultiplePalette
	WarnPaletteOnGray
	WarnMissingPalette
	WarnMultipleTransparency
	WarnLateTransparency
	WarnLateGamma
	WarnBadUnit
	WarnBadFilter
	WarnBadChecksum
	WarnShortImageData
	WarnExtraImageData
	WarnTrailingData
	WarnLongText
)

var codeNames = map[Code]string{
	WarnHeaderNotFirst:       "header chunk is not first",
	WarnChunkTooLong:         "chunk length exceeds limit",
	WarnExtraBytes:           "unused bytes in chunk",
	WarnBadCRC:               "chunk CRC mismatch",
	WarnIllegalHeader:        "legal but unusual header values",
	WarnMultiplePalette:      "duplicate PLTE chunk ignored",
	WarnPaletteOnGray:        "palette in grayscale image",
	WarnMissingPalette:       "palette image without PLTE, treated as grayscale",
	WarnMultipleTransparency: "duplicate tRNS chunk",
	WarnLateTransparency:     "tRNS before PLTE",
	WarnLateGamma:            "gAMA after PLTE",
	WarnBadUnit:              "unit specifier out of range",
	WarnBadFilter:            "bad row filter type, treated as None",
	WarnBadChecksum:          "compressed stream checksum mismatch",
	WarnShortImageData:       "image data ended early, remaining pixels zeroed",
	WarnExtraImageData:       "IDAT after end of compressed stream ignored",
	WarnTrailingData:         "data after IEND chunk",
	WarnLongText:             "text chunk truncated",
}

// String returns a short human description of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("warning %d", int(c))
}

// Warning is a single recorded diagnostic.
type Warning struct {
	Code   Code
	Chunk  string // chunk type being processed, if any
	Detail string
}

func (w Warning) String() string {
	s := w.Code.String()
	if w.Chunk != "" {
		s = w.Chunk + ": " + s
	}
	if w.Detail != "" {
		s += " (" + w.Detail + ")"
	}
	return s
}

// Reporter logs warnings and remembers them in the order they occurred.
// It belongs to a single conversion.
type Reporter struct {
	logger   hclog.Logger
	warnings []Warning
}

// NewReporter creates a Reporter writing to logger.
func NewReporter(logger hclog.Logger) *Reporter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reporter{logger: logger}
}

// Warn records a warning for the given chunk type.
func (r *Reporter) Warn(code Code, chunk string, detail string) {
	w := Warning{Code: code, Chunk: chunk, Detail: detail}
	r.warnings = append(r.warnings, w)

	args := []interface{}{"code", int(code)}
	if chunk != "" {
		args = append(args, "chunk", chunk)
	}
	if detail != "" {
		args = append(args, "detail", detail)
	}
	r.logger.Warn("⚠️ "+code.String(), args...)
}

// Warnings returns the recorded warnings.
func (r *Reporter) Warnings() []Warning {
	return r.warnings
}

// Count returns the number of warnings recorded so far.
func (r *Reporter) Count() int {
	return len(r.warnings)
}
