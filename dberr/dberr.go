package dberr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into the driver's standard error taxonomy.
// Interface errors report misuse of the driver itself; every other kind
// is a specialization of a backend-reported database error.
type Kind int

const (
	// KindUnknown is the zero value and never assigned by the classifiers.
	KindUnknown Kind = iota
	// KindInterface marks misuse of the driver: closed-handle access,
	// invalid argument shape.
	KindInterface
	// KindOperational marks potentially transient backend problems:
	// connectivity loss, timeout, resource exhaustion.
	KindOperational
	// KindProgramming marks caller bugs: invalid statement, wrong
	// parameter count, invalid state-machine transition.
	KindProgramming
	// KindIntegrity marks constraint violations.
	KindIntegrity
	// KindData marks value-range and conversion problems.
	KindData
	// KindNotSupported marks features absent on the active backend.
	KindNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface error"
	case KindOperational:
		return "operational error"
	case KindProgramming:
		return "programming error"
	case KindIntegrity:
		return "integrity error"
	case KindData:
		return "data error"
	case KindNotSupported:
		return "not supported"
	default:
		return "unknown error"
	}
}

// Error is the unified error surfaced to callers. Backend failures are
// classified exactly once, close to the driver that reported them, and
// travel up through cursor and connection unchanged.
type Error struct {
	Kind    Kind
	Backend string // driver name, empty for driver-side errors
	Code    string // backend-reported error code, empty when not applicable
	Message string
	// Fatal reports that the session itself is unusable and any open
	// transaction cannot be trusted anymore.
	Fatal bool

	cause error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s code %s)", e.Kind, e.Message, e.Backend, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an unclassified driver-side error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause, keeping it reachable
// through errors.Unwrap.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the taxonomy kind from err, or KindUnknown when err was
// never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err indicates an unusable session. Only fatal
// operational errors trigger automatic transaction rollback.
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Fatal
}
