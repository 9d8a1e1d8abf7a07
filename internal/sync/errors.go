package sync

import "errors"

// FailureClass tells the retry loop how to treat a failed sync.
type FailureClass int

const (
	// ClassRetryable failures may succeed on a later attempt.
	ClassRetryable FailureClass = iota
	// ClassFatal failures can never succeed again, such as a resource
	// deleted mid-run. The scheduler drops the loop instead of retrying.
	ClassFatal
)

// Error wraps a sync failure with its retry classification.
type Error struct {
	Class FailureClass
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable marks an error as worth retrying.
func Retryable(err error) error {
	return &Error{Class: ClassRetryable, Err: err}
}

// Fatal marks an error as permanent.
func Fatal(err error) error {
	return &Error{Class: ClassFatal, Err: err}
}

// ClassOf extracts the failure class from an error chain. Unclassified
// errors default to retryable.
func ClassOf(err error) FailureClass {
	var se *Error
	if errors.As(err, &se) {
		return se.Class
	}
	return ClassRetryable
}
