package tiff

const (
	// MaxTags is the capacity of the image directory.
	MaxTags = 40

	// StripTableCapacity bounds the bytes of one strip table
	// (StripOffsets or StripByteCounts, 4 bytes per strip).
	StripTableCapacity = 8192

	// TargetStripSize is the strip size the planner starts from.
	TargetStripSize = 8192

	// SingleRowThreshold is the row size above which every strip holds one
	// row before doubling.
	SingleRowThreshold = 4096

	writeBufferSize = 64 * 1024
)
