// Package apperror defines the error taxonomy shared by the domain services
// and the request pipeline. Errors are built with oops codes; the pipeline is
// the only place that turns a code into an HTTP status.
package apperror

import (
	"net/http"

	"github.com/samber/oops"
)

// Error codes.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeStore        = "STORE_FAILURE"
	CodeCrypto       = "CRYPTO_FAILURE"
	CodeUnknown      = "UNKNOWN"
)

const (
	// ValidationMessage is the public message of every validation failure.
	ValidationMessage = "Invalid inputs passed, please check your data."
	// UnknownMessage is rendered for errors outside the taxonomy.
	UnknownMessage = "An unknown error occurred!"

	messageKey = "message"
	fieldsKey  = "fields"
)

// Validation reports rejected input. fields maps a field name to its messages.
func Validation(fields map[string][]string) error {
	return oops.Code(CodeValidation).
		With(messageKey, ValidationMessage).
		With(fieldsKey, fields).
		Errorf("validation failed for %d field(s)", len(fields))
}

// NotFound reports a missing resource.
func NotFound(message string) error {
	return coded(CodeNotFound, message)
}

// Unauthorized reports a failed authentication or ownership check.
func Unauthorized(message string) error {
	return coded(CodeUnauthorized, message)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) error {
	return coded(CodeConflict, message)
}

// Store classifies a persistence fault. An already classified cause is
// returned unchanged.
func Store(message string, cause error) error {
	return wrapped(CodeStore, message, cause)
}

// Crypto classifies a hashing or signing fault. An already classified cause
// is returned unchanged.
func Crypto(message string, cause error) error {
	return wrapped(CodeCrypto, message, cause)
}

func coded(code, message string) error {
	return oops.Code(code).
		With(messageKey, message).
		Errorf("%s", message)
}

func wrapped(code, message string, cause error) error {
	if cause == nil {
		return coded(code, message)
	}
	if Classified(cause) {
		return cause
	}
	return oops.Code(code).
		With(messageKey, message).
		Wrapf(cause, "%s", message)
}

// Classified reports whether err already carries a taxonomy code.
func Classified(err error) bool {
	return Code(err) != CodeUnknown
}

// Code returns the taxonomy code of err, or CodeUnknown.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeUnknown
	}

	switch oopsErr.Code() {
	case CodeValidation:
		return CodeValidation
	case CodeNotFound:
		return CodeNotFound
	case CodeUnauthorized:
		return CodeUnauthorized
	case CodeConflict:
		return CodeConflict
	case CodeStore:
		return CodeStore
	case CodeCrypto:
		return CodeCrypto
	default:
		return CodeUnknown
	}
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch Code(err) {
	case CodeValidation, CodeConflict:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of err. Internal detail of the
// wrapped cause is never included.
func Message(err error) string {
	if Code(err) == CodeUnknown {
		return UnknownMessage
	}
	oopsErr, _ := oops.AsOops(err)
	if msg, ok := oopsErr.Context()[messageKey].(string); ok && msg != "" {
		return msg
	}
	return UnknownMessage
}

// Fields returns the per-field messages of a validation failure.
func Fields(err error) map[string][]string {
	if Code(err) != CodeValidation {
		return nil
	}
	oopsErr, _ := oops.AsOops(err)
	fields, _ := oopsErr.Context()[fieldsKey].(map[string][]string)
	return fields
}
