package overlay

import "errors"

var (
	// ErrInvariantViolation indicates a descriptor value outside its allowed range.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrMalformedMessage indicates a wire structure that could not be decoded.
	ErrMalformedMessage = errors.New("malformed message")
)
