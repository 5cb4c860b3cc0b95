package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrorUnsupportedMedia ErrorCode = "UNSUPPORTED_MEDIA"
	ErrorNotFound         ErrorCode = "NOT_FOUND"
	ErrorInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error is the result of a failed operation. Detail is safe to hand back to
// the caller as-is.
type Error struct {
	Code   ErrorCode
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Detail)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the code carried by err, or ErrorInternal for anything else.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorInternal
}

func newError(code ErrorCode, detail string, err error) *Error {
	return &Error{Code: code, Detail: detail, Err: err}
}
