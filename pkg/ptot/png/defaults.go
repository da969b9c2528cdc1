package png

const (
	// MaxChunkLength is the largest chunk length the format allows.
	MaxChunkLength = 0x7FFFFFFF

	// MaxTextLength caps a decoded text value.
	MaxTextLength = 1 << 20

	// macBinaryHeaderSize is the size of a foreign prefix some Macintosh
	// transfers put in front of the signature.
	macBinaryHeaderSize = 128

	readBufferSize = 64 * 1024
)
