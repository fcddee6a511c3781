// Package binfmt holds the error type shared by the binary decoders.
package binfmt

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic   = errors.New("unexpected magic")
	ErrTruncated  = errors.New("truncated input")
	ErrOutOfRange = errors.New("region out of range")
)

// FormatError reports a structurally invalid buffer. Offset is the byte
// position where decoding stopped.
type FormatError struct {
	Format string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: offset %d: %v", e.Format, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func BadMagic(format string, want, got uint32) *FormatError {
	return &FormatError{
		Format: format,
		Err:    fmt.Errorf("%w: want %#08x, got %#08x", ErrBadMagic, want, got),
	}
}

func Truncated(format string, offset int64, need, have int) *FormatError {
	return &FormatError{
		Format: format,
		Offset: offset,
		Err:    fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, need, have),
	}
}
