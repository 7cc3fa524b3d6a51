package dberr

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
)

// classifyCommon handles failures every backend can produce before its own
// driver gets involved. It returns nil when err needs backend-specific
// classification.
func classifyCommon(backend string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{
			Kind:    KindOperational,
			Backend: backend,
			Message: "operation timed out",
			cause:   err,
		}
	case errors.Is(err, context.Canceled):
		return &Error{
			Kind:    KindOperational,
			Backend: backend,
			Message: "operation canceled",
			cause:   err,
		}
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{
			Kind:    KindOperational,
			Backend: backend,
			Message: "connection is gone",
			Fatal:   true,
			cause:   err,
		}
	}
	return nil
}

// operational is the conservative fallback for codes missing from the
// classification tables. Unrecognized failures must never look more
// specific than they are.
func operational(backend, code string, err error) *Error {
	return &Error{
		Kind:    KindOperational,
		Backend: backend,
		Code:    code,
		Message: err.Error(),
		cause:   err,
	}
}
