package inflate

import (
	"compress/flate"
	"io"
)

func init() {
	Register(&StdlibDecompressor{})
}

// StdlibDecompressor uses the standard library's compress/flate, kept as a
// second implementation to cross-check the default one.
type StdlibDecompressor struct{}

// Name implements Decompressor.
func (d *StdlibDecompressor) Name() string {
	return "stdlib"
}

// NewReader implements Decompressor.
func (d *StdlibDecompressor) NewReader(src Source) io.ReadCloser {
	return flate.NewReader(src)
}
