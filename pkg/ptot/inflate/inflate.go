// Package inflate holds the raw DEFLATE decompressors a conversion can use.
// The zlib framing (header and Adler-32 trailer) is handled by the caller;
// a decompressor only turns compressed bytes into uncompressed ones.
package inflate

import (
	"fmt"
	"io"
	"sort"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// DefaultName is the decompressor used when none is configured.
const DefaultName = "klauspost"

// Source is where a decompressor pulls compressed bytes from. Because it is
// an io.ByteReader, decompressors read exactly the bytes of the DEFLATE
// stream and leave anything after it unread.
type Source interface {
	io.Reader
	io.ByteReader
}

// Decompressor creates readers of uncompressed data.
type Decompressor interface {
	// Name returns the registry name
	Name() string

	// NewReader returns a reader producing the inflated bytes of src. The
	// reader returns io.EOF at the end of the DEFLATE stream.
	NewReader(src Source) io.ReadCloser
}

// registry maps names to implementations
var registry = make(map[string]Decompressor)

// Register registers a decompressor implementation
func Register(d Decompressor) {
	registry[d.Name()] = d
}

// Get retrieves a decompressor by name; an empty name selects DefaultName.
func Get(name string) (Decompressor, error) {
	if name == "" {
		name = DefaultName
	}
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", perrors.ErrUnknownInflater, name)
	}
	return d, nil
}

// Names lists the registered decompressors in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
