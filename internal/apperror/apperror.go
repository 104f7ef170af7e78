// Package apperror classifies failures so the HTTP layer can map them to
// status codes without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindConflict
	KindIntegrity
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConflict:
		return "conflict"
	case KindIntegrity:
		return "integrity"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// StatusCode is the HTTP status a kind is reported with.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindConflict:
		return http.StatusConflict
	case KindIntegrity:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to API callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinels like
// ErrInsufficientStock work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrIntegrity         = &Error{Kind: KindIntegrity}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Integrity(err error, format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...), Err: err}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain. Translated GORM
// constraint errors are classified as well; everything else is internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindIntegrity
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	}
	return KindInternal
}

// PublicMessage returns the message to expose for err. Internal failures get
// the fallback so storage details never leak.
func PublicMessage(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	switch KindOf(err) {
	case KindIntegrity:
		return "referenced record does not exist"
	case KindConflict:
		return "record already exists"
	case KindNotFound:
		return "record not found"
	}
	return fallback
}
