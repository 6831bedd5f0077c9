package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSync indicates the preamble was not observed before the
	// source was exhausted. It means "no frame available" rather than
	// a failure.
	ErrNoSync = errors.New("no sync")
)

// IncompleteHeaderError indicates fewer than HeaderSize bytes were
// obtained for the header.
type IncompleteHeaderError struct {
	Got int
}

// Error implements error.
func (e *IncompleteHeaderError) Error() string {
	return fmt.Sprintf("incomplete header: %d/%d", e.Got, HeaderSize)
}

// SizeMismatchError indicates the declared payload size disagrees with
// width * height * bytes-per-pixel.
type SizeMismatchError struct {
	Expected uint32
	Declared uint32
}

// Error implements error.
func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch: expected %d, got %d", e.Expected, e.Declared)
}

// IncompletePayloadError indicates fewer payload bytes were obtained
// than declared.
type IncompletePayloadError struct {
	Got      int
	Expected int
}

// Error implements error.
func (e *IncompletePayloadError) Error() string {
	return fmt.Sprintf("incomplete payload: %d/%d", e.Got, e.Expected)
}

// TransportError wraps a failure of the underlying byte source which is
// neither end of stream nor a timeout.
type TransportError struct {
	State State
	Err   error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error in %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNoSync reports whether err means no frame was available.
func IsNoSync(err error) bool {
	return errors.Is(err, ErrNoSync)
}
