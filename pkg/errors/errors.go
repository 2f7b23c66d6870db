// Package errors provides coded errors for the whiteboard CLI and HTTP API.
//
// The engine packages (path, tree, op, board, store) fail with plain
// sentinel errors. At the boundary those sentinels are turned into an
// [*Error] carrying a [Code], either explicitly with [New] and [Wrap] or by
// matching them against a rule table with [Classify]. The HTTP API picks a
// status with [HTTPStatus]; the CLI prints [UserMessage].
//
// # Codes
//
//   - INVALID_*: the request or document is malformed
//   - NOT_FOUND, BOARD_NOT_FOUND: the addressed board or element is missing
//   - STORAGE_ERROR, TIMEOUT: the persistence backend failed
//   - INTERNAL_ERROR: anything not classified
//
// # Usage
//
//	if err := errors.ValidateBoardID(id); err != nil {
//	    return err // INVALID_INPUT
//	}
//	return errors.Wrap(errors.ErrCodeStorage, err, "save %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidOperation Code = "INVALID_OPERATION"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeBoardNotFound Code = "BOARD_NOT_FOUND"

	ErrCodeStorage Code = "STORAGE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is an error with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil || e.Message == e.Cause.Error() {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// as returns the outermost *Error in err's chain.
func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := as(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns err's message without the code prefix.
func UserMessage(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}

// Rule maps a sentinel error to the code it is reported under.
type Rule struct {
	Target error
	Code   Code
}

// Classify returns err unchanged if it already carries a code. Otherwise it
// wraps err with the code of the first rule whose target matches (using
// errors.Is), or ErrCodeInternal if none does. Classify returns nil for nil.
func Classify(err error, rules ...Rule) error {
	if err == nil {
		return nil
	}
	if _, ok := as(err); ok {
		return err
	}
	code := ErrCodeInternal
	for _, r := range rules {
		if errors.Is(err, r.Target) {
			code = r.Code
			break
		}
	}
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

// HTTPStatus returns the status a response carrying err should use.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidOperation, ErrCodeInvalidPath, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeBoardNotFound:
		return http.StatusNotFound
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
