// Package apperrors carries the ledger's error taxonomy. Every failure that
// crosses a package boundary is an *Error with a stable Code, so handlers can
// map it to a response without comparing message strings.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error category.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeAccountNotFound    Code = "ACCOUNT_NOT_FOUND"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeConcurrencyTimeout Code = "CONCURRENCY_TIMEOUT"
	CodeStorage            Code = "STORAGE_ERROR"
)

// GenericStorageMessage is the only text a caller ever sees for a storage failure.
const GenericStorageMessage = "Transfer failed"

// Error is a categorized error. Message is safe to show to callers; Err holds
// the internal cause and is only ever logged.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-facing message to an internal cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf reports the code of err, or CodeStorage for anything uncategorized.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeStorage
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether the caller may resend the same request without
// re-checking balances. Only lock-wait and deadlock aborts qualify.
func IsRetryable(err error) bool {
	return Is(err, CodeConcurrencyTimeout)
}

// HTTPStatus maps a code onto the status the HTTP boundary returns.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeAccountNotFound:
		return http.StatusNotFound
	case CodeConcurrencyTimeout:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
