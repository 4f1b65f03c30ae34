package services

import (
	"errors"
	"fmt"
)

// ErrorCode - код ошибки, который видит клиент
type ErrorCode string

const (
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeBlocked       ErrorCode = "BLOCKED"
	CodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
	CodeRateLimited   ErrorCode = "RATE_LIMITED"
	CodeUnknown       ErrorCode = "UNKNOWN"
)

// Error - ошибка с кодом для API. RetryAfter заполняется только для RATE_LIMITED (в секундах).
type Error struct {
	Code       ErrorCode
	Message    string
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func ErrInvalidInput(message string) *Error  { return newError(CodeInvalidInput, message) }
func ErrNotFound(message string) *Error      { return newError(CodeNotFound, message) }
func ErrForbidden(message string) *Error     { return newError(CodeForbidden, message) }
func ErrBlocked(message string) *Error       { return newError(CodeBlocked, message) }
func ErrUnauthorized(message string) *Error  { return newError(CodeUnauthorized, message) }
func ErrLimitExceeded(message string) *Error { return newError(CodeLimitExceeded, message) }

func ErrRateLimited(retryAfter int) *Error {
	return &Error{Code: CodeRateLimited, Message: "too many requests", RetryAfter: retryAfter}
}

// errUnknown оборачивает внутреннюю ошибку (хранилище, сеть)
func errUnknown(message string, err error) *Error {
	return &Error{Code: CodeUnknown, Message: message, Err: err}
}

// CodeOf возвращает код ошибки, для всех непредусмотренных ошибок - UNKNOWN
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
