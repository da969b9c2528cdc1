package convert

import (
	"path/filepath"
	"strings"
)

// InputPath appends ".png" to a name that has no extension.
func InputPath(name string) string {
	if filepath.Ext(name) == "" {
		return name + ".png"
	}
	return name
}

// OutputPath derives the output file name from the input by replacing its
// extension with one for format.
func OutputPath(input, format string) string {
	ext := ".tif"
	if format == FormatPPM {
		ext = ".ppm"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
