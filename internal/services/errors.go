package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a service failure
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindState      ErrorKind = "state"
	KindForbidden  ErrorKind = "forbidden"
)

// Error is the typed failure returned by every service operation.
// None of these are fatal; the store is untouched when one is returned
// before a write.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrState) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Kind sentinels for errors.Is
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrState      = &Error{Kind: KindState}
	ErrForbidden  = &Error{Kind: KindForbidden}
)

// ErrInvalidCredentials is returned by Authenticate for unknown email or bad password
var ErrInvalidCredentials = errors.New("invalid email or password")

func validationError(op, message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Fields: fields}
}

func notFoundError(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func stateError(op, message string) *Error {
	return &Error{Kind: KindState, Op: op, Message: message}
}

func forbiddenError(op, message string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Message: message}
}

// KindOf returns the kind of a service error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsState(err error) bool      { return KindOf(err) == KindState }
func IsForbidden(err error) bool  { return KindOf(err) == KindForbidden }
