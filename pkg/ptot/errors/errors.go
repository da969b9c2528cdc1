// Package errors defines the fatal conditions of a conversion. Any of these
// aborts the whole conversion; recoverable problems are diag warnings instead.
package errors

import "errors"

var (
	// I/O errors 💾
	ErrRead  = errors.New("❌ cannot read input")
	ErrWrite = errors.New("❌ cannot write output")

	// Container errors 📦
	ErrBadSignature = errors.New("❌ not a PNG file")
	ErrBadFraming   = errors.New("❌ malformed PNG chunk")
	ErrBadHeader    = errors.New("❌ invalid IHDR chunk")
	ErrNoImageData  = errors.New("❌ no IDAT chunk before IEND")
	ErrBadImage     = errors.New("❌ inconsistent image description")

	// Pixel format errors 🎨
	ErrUnsupportedDepth  = errors.New("❌ unsupported bit depth")
	ErrIllegalColorDepth = errors.New("❌ illegal bit depth for color type")

	// Compressed stream errors 🗜️
	ErrCompressionHeader     = errors.New("❌ bad compressed stream header")
	ErrUnexpectedEndOfStream = errors.New("❌ unexpected end of compressed stream")
	ErrCorruptStream         = errors.New("❌ corrupt compressed stream")
	ErrUnknownInflater       = errors.New("❌ unknown decompressor")

	// Configuration errors ⚙️
	ErrInvalidOption = errors.New("❌ invalid option")

	// Output errors 🏷️
	ErrCapacity          = errors.New("❌ output table capacity exceeded")
	ErrUnsupportedFormat = errors.New("❌ image cannot be written in the requested format")
)

// Process exit codes reported by the CLI.
const (
	ExitSuccess     = 0
	ExitUsage       = 1
	ExitPanic       = 101
	ExitBadInput    = 102
	ExitBadStream   = 103
	ExitOutputError = 104
	ExitIOError     = 106
)

// ExitCode maps a fatal conversion error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrRead):
		return ExitIOError
	case errors.Is(err, ErrWrite), errors.Is(err, ErrCapacity), errors.Is(err, ErrUnsupportedFormat):
		return ExitOutputError
	case errors.Is(err, ErrCompressionHeader), errors.Is(err, ErrUnexpectedEndOfStream),
		errors.Is(err, ErrCorruptStream):
		return ExitBadStream
	case errors.Is(err, ErrUnknownInflater), errors.Is(err, ErrInvalidOption):
		return ExitUsage
	default:
		return ExitBadInput
	}
}
