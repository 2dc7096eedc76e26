// Package apperr defines the error taxonomy shared by the trip assembly
// components. Every error a caller may need to react to carries a Kind; the
// HTTP layer maps kinds to status codes and the wizard uses them to decide
// what is retryable.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a bad or missing field. Recoverable by the editor.
	KindValidation
	// KindConflict is a uniqueness clash (slug, date, junction row).
	KindConflict
	// KindResourceLimit is an oversized or disallowed media file.
	KindResourceLimit
	// KindTransient is an I/O failure that may succeed on retry.
	KindTransient
	// KindInvariant is an attempt to break a model invariant. Never corrected.
	KindInvariant
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindResourceLimit:
		return "resource_limit"
	case KindTransient:
		return "transient"
	case KindInvariant:
		return "invariant_violation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified error. Field names the offending input when there is one.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a bad or missing field.
func Validation(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness clash on field.
func Conflict(field, format string, args ...any) error {
	return &Error{Kind: KindConflict, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ResourceLimit reports media that was rejected before any durable write.
func ResourceLimit(format string, args ...any) error {
	return &Error{Kind: KindResourceLimit, Msg: fmt.Sprintf(format, args...)}
}

// Transient wraps an I/O failure.
func Transient(err error, format string, args ...any) error {
	return &Error{Kind: KindTransient, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Invariant reports an operation that would break a model invariant.
func Invariant(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing record.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldOf returns the field of the first classified error in err's chain.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
