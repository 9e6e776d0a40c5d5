package report

import (
	"errors"
	"fmt"
)

// FetchError reports a failed read against the backing store. Callers fall
// back to the local backup snapshot when they see one.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("report fetch failed (%s): %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps a storage read failure
func NewFetchError(op string, err error) error {
	return &FetchError{Op: op, Err: err}
}

// WriteError reports a failed flush against the backing store. The local
// backup snapshot must be retained when one of these comes back.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("report write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// NewWriteError wraps a storage write failure
func NewWriteError(op string, err error) error {
	return &WriteError{Op: op, Err: err}
}

// InvariantViolationError marks a caller mistake at the row-collection
// boundary, such as removing the cash box row or operating on an empty
// collection. It is a programming error, not a runtime condition.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return "row invariant violation: " + e.Reason
}

// NewInvariantViolation creates an invariant violation error
func NewInvariantViolation(reason string) error {
	return &InvariantViolationError{Reason: reason}
}

// IsFetchError checks if an error is a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsWriteError checks if an error is a WriteError
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// IsInvariantViolation checks if an error is an InvariantViolationError
func IsInvariantViolation(err error) bool {
	var ive *InvariantViolationError
	return errors.As(err, &ive)
}
