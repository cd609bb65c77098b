package pf

import (
	"fmt"
)

// ErrorCode classifies PF layer failures
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Buffer pool errors
	ErrCodePoolExhausted
	ErrCodeNotPinned
	ErrCodePageNotResident
	ErrCodeInvalidPageID

	// Backing store errors
	ErrCodeStoreReadFailed
	ErrCodeStoreWriteFailed
	ErrCodeStoreClosed
)

// PFError is a PF layer error with operation context
type PFError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *PFError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *PFError) Unwrap() error {
	return e.Err
}

// Is matches errors by code so callers can test with errors.Is
func (e *PFError) Is(target error) bool {
	if t, ok := target.(*PFError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewPFError creates a new PF layer error
func NewPFError(code ErrorCode, op, message string, err error) *PFError {
	return &PFError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Helper constructors for the error taxonomy

// ErrPoolExhausted reports a fault with no unpinned victim available.
// Recoverable: the caller must unfix pages and retry.
func ErrPoolExhausted(op string) *PFError {
	return NewPFError(
		ErrCodePoolExhausted,
		op,
		"no unpinned frame available",
		nil,
	)
}

// ErrNotPinned reports an Unfix for a page that is not resident or not
// pinned. Caller misuse, never retried.
func ErrNotPinned(op string, pageID uint32) *PFError {
	return NewPFError(
		ErrCodeNotPinned,
		op,
		fmt.Sprintf("page %d is not pinned", pageID),
		nil,
	)
}

// ErrPageNotResident reports an operation on a page that is not in the pool.
func ErrPageNotResident(op string, pageID uint32) *PFError {
	return NewPFError(
		ErrCodePageNotResident,
		op,
		fmt.Sprintf("page %d is not resident", pageID),
		nil,
	)
}

// ErrStoreRead wraps a backing store read failure.
func ErrStoreRead(op string, pageID uint32, err error) *PFError {
	return NewPFError(
		ErrCodeStoreReadFailed,
		op,
		fmt.Sprintf("backing store read of page %d failed", pageID),
		err,
	)
}

// ErrStoreWrite wraps a backing store write failure.
func ErrStoreWrite(op string, pageID uint32, err error) *PFError {
	return NewPFError(
		ErrCodeStoreWriteFailed,
		op,
		fmt.Sprintf("backing store write of page %d failed", pageID),
		err,
	)
}

// ErrInvalidPageID reports an operation on the reserved page id.
func ErrInvalidPageID(op string, pageID uint32) *PFError {
	return NewPFError(
		ErrCodeInvalidPageID,
		op,
		fmt.Sprintf("invalid page id %d", pageID),
		nil,
	)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	if pe, ok := err.(*PFError); ok {
		return pe.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	if pe, ok := err.(*PFError); ok {
		return pe.Code
	}
	return ErrCodeUnknown
}
