// Package service holds the business rules of the portal.  Every
// failure a caller should act on is an *Error whose Kind is one of
// the sentinels below; callers match kinds with errors.Is.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Handlers translate them into HTTP status codes.
var (
	ErrNotFound        = errors.New("not found")        // 404
	ErrUnauthorized    = errors.New("unauthorized")     // 403
	ErrInvalidInput    = errors.New("invalid input")    // 400
	ErrConflict        = errors.New("conflict")         // 409
	ErrPaymentDeclined = errors.New("payment declined") // 402
)

// Error is a domain failure with a message fit to show a user.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
