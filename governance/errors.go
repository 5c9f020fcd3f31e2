package governance

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable tag of a rejected operation.
type Code string

const (
	CodeUnauthorized       Code = "G0"
	CodeNullGovernor       Code = "G1"
	CodeTokenIDOutOfRange  Code = "G2"
	CodeNullTokenAddress   Code = "G3"
	CodeTokenRegistered    Code = "G4"
	CodeAddressBound       Code = "G5"
	CodePauseUnknownToken  Code = "G7"
	CodeInvalidNewAddress  Code = "G8"
	CodeUpdateUnknownToken Code = "G9"
	CodeSameAddress        Code = "G10"
	CodeNativeImmutable    Code = "G11"

	CodeNotInitialized     Code = "NOT_INITIALIZED"
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeNotFound           Code = "NOT_FOUND"
)

// HTTPStatus maps a code to the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized:
		return http.StatusForbidden

	case CodeNullGovernor,
		CodeTokenIDOutOfRange,
		CodeNullTokenAddress,
		CodeInvalidNewAddress:
		return http.StatusBadRequest

	case CodeTokenRegistered,
		CodeAddressBound,
		CodeSameAddress,
		CodeNativeImmutable,
		CodeAlreadyInitialized:
		return http.StatusConflict

	case CodePauseUnknownToken,
		CodeUpdateUnknownToken,
		CodeNotFound:
		return http.StatusNotFound

	case CodeNotInitialized:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// Error is a rejected governance operation. Two errors are equal under errors.Is
// when their codes match, so errors decoded off the wire compare equal to the sentinels.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUnauthorized       = &Error{CodeUnauthorized, "caller is not the network governor"}
	ErrNullGovernor       = &Error{CodeNullGovernor, "governor cannot be the null address"}
	ErrTokenIDOutOfRange  = &Error{CodeTokenIDOutOfRange, "token id must be in (0, 8192)"}
	ErrNullTokenAddress   = &Error{CodeNullTokenAddress, "token address cannot be the null address"}
	ErrTokenRegistered    = &Error{CodeTokenRegistered, "token id already registered"}
	ErrAddressBound       = &Error{CodeAddressBound, "token address already bound to another token id"}
	ErrPauseUnknownToken  = &Error{CodePauseUnknownToken, "token not registered"}
	ErrInvalidNewAddress  = &Error{CodeInvalidNewAddress, "new token address cannot be null or the native token address"}
	ErrUpdateUnknownToken = &Error{CodeUpdateUnknownToken, "token not registered"}
	ErrSameAddress        = &Error{CodeSameAddress, "new token address equals the current one"}
	ErrNativeImmutable    = &Error{CodeNativeImmutable, "native token address cannot be changed"}

	ErrNotInitialized     = &Error{CodeNotInitialized, "governance not initialized"}
	ErrAlreadyInitialized = &Error{CodeAlreadyInitialized, "governance already initialized"}
	ErrNotFound           = &Error{CodeNotFound, "not found"}
)

// CodeOf returns the governance code carried by err, or "" if there is none.
func CodeOf(err error) Code {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return ""
}
