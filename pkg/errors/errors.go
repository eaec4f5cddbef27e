// Package errors defines the coded errors shared by the layout core, the CLI
// and the HTTP API.
//
// The layout core fails in exactly two ways, [ErrCodeInvalidLaneCount] and
// [ErrCodeInvalidSpanSize]. Everything else belongs to the surfaces around
// it: manifests, stores and requests. Callers branch on the code, never on
// the message:
//
//	tr, err := grid.NewTracker(grid.Vertical, lanes)
//	if errors.Is(err, errors.ErrCodeInvalidLaneCount) {
//	    ...
//	}
//
// Codes fall into classes by name. INVALID_* codes are caller mistakes,
// *NOT_FOUND codes are missing resources, and the rest are internal.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a stable, machine-readable failure identifier.
type Code string

const (
	ErrCodeInvalidLaneCount Code = "INVALID_LANE_COUNT"
	ErrCodeInvalidSpanSize  Code = "INVALID_SPAN_SIZE"

	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidOrientation Code = "INVALID_ORIENTATION"
	ErrCodeInvalidViewport    Code = "INVALID_VIEWPORT"
	ErrCodeInvalidManifest    Code = "INVALID_MANIFEST"
	ErrCodeInvalidStep        Code = "INVALID_STEP"

	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeAnchorNotFound Code = "ANCHOR_NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Class groups codes by who has to act on them.
type Class int

const (
	ClassInternal Class = iota
	ClassInvalid
	ClassNotFound
)

// Class derives the class from the code's name.
func (c Code) Class() Class {
	switch {
	case strings.HasPrefix(string(c), "INVALID_"):
		return ClassInvalid
	case c == ErrCodeNotFound || strings.HasSuffix(string(c), "_NOT_FOUND"):
		return ClassNotFound
	}
	return ClassInternal
}

// Error carries a Code, a message for humans and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e := asError(err); e != nil {
		return e.Code
	}
	return ""
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether err's chain holds an *Error with code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage strips the code prefix and cause from coded errors. Other
// errors are returned verbatim.
func UserMessage(err error) string {
	if e := asError(err); e != nil {
		return e.Message
	}
	return err.Error()
}

// IsInvalid reports whether err is a caller mistake, the two layout codes
// included.
func IsInvalid(err error) bool {
	code := GetCode(err)
	return code != "" && code.Class() == ClassInvalid
}

// IsNotFound reports whether err names a missing resource.
func IsNotFound(err error) bool {
	code := GetCode(err)
	return code != "" && code.Class() == ClassNotFound
}
