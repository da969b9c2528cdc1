package inflate

import (
	"io"

	"github.com/klauspost/compress/flate"
)

func init() {
	Register(&KlauspostDecompressor{})
}

// KlauspostDecompressor uses github.com/klauspost/compress/flate.
type KlauspostDecompressor struct{}

// Name implements Decompressor.
func (d *KlauspostDecompressor) Name() string {
	return "klauspost"
}

// NewReader implements Decompressor.
func (d *KlauspostDecompressor) NewReader(src Source) io.ReadCloser {
	return flate.NewReader(src)
}
