// Package scratch provides the disposable named blobs a conversion uses for
// intermediate pixel data.
package scratch

import (
	"io"
)

// Well-known blob ids.
const (
	PixelsBlob = "pixels"
	ExtraBlob  = "extra"
	TextBlob   = "text"
)

// PassBlob returns the blob id for an interlace pass.
func PassBlob(pass int) string {
	return "pass" + string(rune('0'+pass))
}

// Store is a set of named blobs. A blob is written once through Create and
// may then be reopened for reading any number of times.
type Store interface {
	// Create opens id for writing, discarding any previous content.
	Create(id string) (io.WriteCloser, error)
	// Open reopens a previously created blob for reading.
	Open(id string) (io.ReadCloser, error)
	// Size returns the number of bytes written to id.
	Size(id string) (int64, error)
	// CloseAll closes every handle the store has handed out.
	CloseAll() error
	// RemoveAll closes everything and discards all blobs.
	RemoveAll() error
}
