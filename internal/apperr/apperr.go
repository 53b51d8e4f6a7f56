package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an application error for transport mapping.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeTransient    Code = "transient"
	CodePushDelivery Code = "push_delivery"
)

// E is a typed application error carrying a stable code and a
// human-readable message.
type E struct {
	Code    Code
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Validation reports missing or malformed input. Never retried.
func Validation(format string, args ...interface{}) *E {
	return &E{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a resource that is absent or not owned by the caller.
func NotFound(format string, args ...interface{}) *E {
	return &E{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps a database or network hiccup. Read-only operations may
// be retried by the caller; writes are not retried automatically.
func Transient(msg string, err error) *E {
	return &E{Code: CodeTransient, Message: msg, Err: err}
}

// PushDelivery wraps a push-provider rejection. Logged and swallowed at
// the dispatch boundary, never propagated to the triggering operation.
func PushDelivery(msg string, err error) *E {
	return &E{Code: CodePushDelivery, Message: msg, Err: err}
}

// CodeOf extracts the application error code, or "" for untyped errors.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
