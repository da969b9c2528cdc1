package pkg

import perrors "github.com/provide-io/ptot/pkg/ptot/errors"

var (
	// Input errors 📥
	ErrRead         = perrors.ErrRead
	ErrBadSignature = perrors.ErrBadSignature
	ErrNoImageData  = perrors.ErrNoImageData

	// Output errors 📤
	ErrWrite             = perrors.ErrWrite
	ErrUnsupportedFormat = perrors.ErrUnsupportedFormat
)

// ExitCode maps an error returned by this package to a process exit code.
func ExitCode(err error) int {
	return perrors.ExitCode(err)
}
