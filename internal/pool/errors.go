package pool

import "fmt"

// Kind classifies pool errors so the HTTP layer can map them to status codes.
type Kind int

const (
	// KindInvalidArgument marks a request with a non-positive or otherwise
	// out-of-range value.
	KindInvalidArgument Kind = iota + 1
	// KindLimitExceeded marks a single grow request above the configured ceiling.
	KindLimitExceeded
	// KindAllocationFailure marks a memory reservation the platform refused.
	KindAllocationFailure
)

// Error represents a pool operation error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgument checks if an error is a pool.Error with KindInvalidArgument
func IsInvalidArgument(err error) bool {
	return isKind(err, KindInvalidArgument)
}

// IsLimitExceeded checks if an error is a pool.Error with KindLimitExceeded
func IsLimitExceeded(err error) bool {
	return isKind(err, KindLimitExceeded)
}

// IsAllocationFailure checks if an error is a pool.Error with KindAllocationFailure
func IsAllocationFailure(err error) bool {
	return isKind(err, KindAllocationFailure)
}

func isKind(err error, kind Kind) bool {
	if poolErr, ok := err.(*Error); ok {
		return poolErr.Kind == kind
	}
	return false
}
