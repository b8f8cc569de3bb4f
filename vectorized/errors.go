package vectorized

import (
	"errors"
	"fmt"
)

// The expression core reports exactly two kinds of failure. NotImplemented
// marks shapes, operators and type pairings that are legitimate future
// extension points with no kernel today. General marks structurally invalid
// input. Both are unrecoverable at the point they occur: no retry, no
// partial compilation, no fallback values. Callers discriminate with
// errors.Is.
var (
	ErrNotImplemented = errors.New("not implemented")
	ErrGeneral        = errors.New("invalid expression")
)

func notImplementedf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotImplemented)
}

func generalf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrGeneral)
}
