package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies a failure so callers can branch on it without string matching.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"

	// Bot boundary refinements.
	KindBotUserNotFound Kind = "bot_user_not_found"
	KindProfileNotFound Kind = "profile_not_found"
	KindInvalidAPIKey   Kind = "invalid_api_key"
)

// Error is the structured error returned by every service operation.
// Fields carries context such as botAppName or externalQuestionId.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, fields map[string]string) *Error {
	return &Error{Kind: kind, Message: msg, Fields: fields}
}

func NotFound(msg string, fields map[string]string) *Error {
	return newError(KindNotFound, msg, fields)
}

func InvalidInput(msg string, fields map[string]string) *Error {
	return newError(KindInvalidInput, msg, fields)
}

func Unauthorized(msg string) *Error {
	return newError(KindUnauthorized, msg, nil)
}

func Unauthenticated(msg string) *Error {
	return newError(KindUnauthenticated, msg, nil)
}

func Conflict(msg string, fields map[string]string) *Error {
	return newError(KindConflict, msg, fields)
}

// Internal wraps an unexpected store or transport failure. The cause is kept
// for logging; Message is what reaches clients.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err. Unstructured errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindConflict
	}
	return KindInternal
}

// storeErr translates a gorm error into a structured one. what names the
// entity for NotFound messages.
func storeErr(err error, what string, fields map[string]string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(what+" not found", fields)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: what + " already exists", Fields: fields, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: KindInvalidInput, Message: what + " references a missing record", Fields: fields, Err: err}
	}
	return Internal("failed to access "+what, err)
}
