package sync

import "errors"

// Kind classifies a failure for the caller. Handlers map kinds to HTTP
// statuses; the connection record carries the durable copy for sync failures.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindConnectionInactive Kind = "CONNECTION_INACTIVE"
	KindProvider           Kind = "PROVIDER_ERROR"
	KindDatabase           Kind = "DATABASE_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindDatabase for untyped errors (the
// only untyped failures that can escape this package come from the store).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDatabase
}

// ProviderError carries the provider's own error code and message so they can
// be persisted verbatim onto the connection for diagnostics.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }
