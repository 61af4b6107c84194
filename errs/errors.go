// Package errs defines the sentinel errors shared across packlist packages.
package errs

import "errors"

var (
	// ErrCorruptSegment indicates an externally supplied packed-segment buffer
	// failed structural validation.
	ErrCorruptSegment = errors.New("corrupt packed segment")

	// ErrSegmentFull indicates a packed segment reached its count or byte
	// capacity limit.
	ErrSegmentFull = errors.New("packed segment is full")

	// ErrInvalidFill indicates a fill factor outside the supported range.
	ErrInvalidFill = errors.New("invalid fill factor")

	// ErrInvalidCompressDepth indicates a negative compression depth.
	ErrInvalidCompressDepth = errors.New("invalid compression depth")
)
