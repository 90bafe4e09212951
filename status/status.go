// Package status defines the typed failure vocabulary of the core. Every
// public operation returns either its success payload or one of these
// kinds; the transport layer maps kinds to protocol responses but never
// invents error semantics of its own.
package status

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independent of any transport status code.
type Kind int

const (
	// KindNotFound: a referenced profile, post or reply does not exist.
	KindNotFound Kind = iota + 1
	// KindConflict: uniqueness violation (duplicate handle, duplicate
	// subject registration, duplicate follow edge).
	KindConflict
	// KindForbidden: caller is not authorized to mutate the target.
	KindForbidden
	// KindValidation: structural or content rule violation.
	KindValidation
	// KindInvalidState: operation incompatible with the current
	// relationship state.
	KindInvalidState
	// KindUnavailable: unexpected storage failure, caller should retry.
	KindUnavailable
)

// Reasons narrow a kind down to the specific condition. They are part of
// the API surface and serialized to clients verbatim.
const (
	ReasonHandleTaken       = "HANDLE_TAKEN"
	ReasonAlreadyRegistered = "ALREADY_REGISTERED"
	ReasonSelfFollow        = "SELF_FOLLOW"
	ReasonAlreadyFollowing  = "ALREADY_FOLLOWING"
	ReasonNotFollowing      = "NOT_FOLLOWING"
	ReasonInvalidParent     = "INVALID_PARENT"
)

type Error struct {
	Kind   Kind
	Reason string
	msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func Conflict(reason, format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Reason: reason, msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func InvalidState(reason, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Reason: reason, msg: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an unexpected storage error. The cause is preserved
// for logging but never interpreted by callers.
func Unavailable(cause error) error {
	return &Error{Kind: KindUnavailable, msg: "storage unavailable", cause: cause}
}

// KindOf extracts the kind of err, or KindUnavailable when err is not a
// typed core failure. Untyped errors escaping an operation boundary are a
// bug, treating them as retryable is the safe default.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// ReasonOf extracts the reason of err, empty for untyped errors or typed
// errors without a narrower reason.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
