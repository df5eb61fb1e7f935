package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error at an operation boundary. Callers compare
// against the exported sentinels with errors.Is.
type Kind string

const (
	KindCredentialExpired   Kind = "credential_expired"
	KindCredentialInvalid   Kind = "credential_invalid"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindEmptyInput          Kind = "empty_input"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrCredentialExpired   = &Error{Kind: KindCredentialExpired, Message: "credential expired, re-authentication required"}
	ErrCredentialInvalid   = &Error{Kind: KindCredentialInvalid, Message: "credential invalid"}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable, Message: "upstream provider unavailable"}
	ErrEmptyInput          = &Error{Kind: KindEmptyInput, Message: "empty input"}
)

// Error is the boundary error type. Err carries the upstream cause for
// diagnostics and is never a provider type the HTTP layer has to know about.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// StatusFor returns the HTTP status code used for a kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindCredentialExpired:
		return http.StatusUnauthorized
	case KindCredentialInvalid, KindEmptyInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// CredentialExpired reports that the caller must re-authenticate.
func CredentialExpired(op string, cause error) *Error {
	return &Error{Kind: KindCredentialExpired, Op: op, Message: "credential expired, re-authentication required", Err: cause}
}

// CredentialInvalid reports a malformed or missing credential field.
func CredentialInvalid(op, format string, args ...any) *Error {
	return &Error{Kind: KindCredentialInvalid, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ProviderUnavailable reports an upstream failure unrelated to credential validity.
func ProviderUnavailable(op string, cause error) *Error {
	return &Error{Kind: KindProviderUnavailable, Op: op, Message: "upstream provider unavailable", Err: cause}
}

// EmptyInput reports a request without the content it needs.
func EmptyInput(op, message string) *Error {
	return &Error{Kind: KindEmptyInput, Op: op, Message: message}
}

// KindOf returns the kind of err, or KindProviderUnavailable for errors
// outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProviderUnavailable
}

// HTTPStatus returns the status code for any error.
func HTTPStatus(err error) int {
	return StatusFor(KindOf(err))
}

// Ensure returns err unchanged when it already is an *Error and wraps it as
// kind otherwise. It returns nil for a nil err.
func Ensure(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if kind == KindProviderUnavailable {
		return ProviderUnavailable(op, err)
	}
	return Wrap(kind, op, err)
}
