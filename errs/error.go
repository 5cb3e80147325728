package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// EINVALID is returned when submitted data fails validation. It is the
	// ValidationError of the blog core and usually carries the offending field.
	EINVALID = "invalid"
	// ENOTFOUND is returned when a referenced post, group or user does not exist.
	ENOTFOUND = "not_found"
	// EUNAUTHORIZED is returned when an anonymous actor attempts an action that
	// requires authentication, or when a user tries to change content they don't own.
	EUNAUTHORIZED = "unauthorized"
	// ECONFLICT is returned when a write collides with a uniqueness rule.
	ECONFLICT = "conflict"
	// EINTERNAL covers everything else, most notably persistence failures.
	EINTERNAL = "internal"
)

// Error is the application error type. Code is one of the constants above,
// Field optionally names the input field that caused a validation error and
// Message is safe to show to the client.
type Error struct {
	Code    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("blogFeed error: code=%s field=%s message=%s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("blogFeed error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invalid returns a validation error bound to an input field, so that a form
// can be re-rendered with the message next to that field.
func Invalid(field string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    EINVALID,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict returns an error for a write that lost a race on a uniqueness rule.
func Conflict(field string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    ECONFLICT,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorField returns the input field an application error refers to, if any.
func ErrorField(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
