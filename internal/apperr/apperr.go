package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

// Is matches on code and message so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap returns a copy of sentinel carrying err as its cause.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

var (
	ErrProductNotFound   = New(http.StatusNotFound, "Product not found", nil)
	ErrOrderNotFound     = New(http.StatusNotFound, "Order not found", nil)
	ErrMediaRequired     = New(http.StatusBadRequest, "Image file is required", nil)
	ErrInvalidPrice      = New(http.StatusBadRequest, "Invalid price", nil)
	ErrInvalidSizeAction = New(http.StatusBadRequest, "Invalid size action", nil)
	ErrSizeRequired      = New(http.StatusBadRequest, "Size is required", nil)
	ErrImageURLRequired  = New(http.StatusBadRequest, "imageUrl is required", nil)
	ErrEmptyCart         = New(http.StatusBadRequest, "No items provided", nil)
	ErrBadRequest        = New(http.StatusBadRequest, "Bad request", nil)
	ErrInternalServer    = New(http.StatusInternalServerError, "Internal server error", nil)
)

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
