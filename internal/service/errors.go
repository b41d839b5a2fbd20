package service

import (
	"errors"
	"fmt"
)

// Kind classifies every error the service layer returns. The set is closed;
// the HTTP layer maps each kind to a status code in one place.
type Kind int

const (
	KindStorage Kind = iota // zero value: unknown errors are treated as storage failures
	KindValidation
	KindDuplicateUsername
	KindDuplicateEmail
	KindInvalidCredentials
	KindInvalidToken
	KindInvalidOrExpiredToken
	KindNotifier
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindDuplicateUsername:
		return "DuplicateUsername"
	case KindDuplicateEmail:
		return "DuplicateEmail"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindInvalidToken:
		return "InvalidToken"
	case KindInvalidOrExpiredToken:
		return "InvalidOrExpiredToken"
	case KindNotifier:
		return "NotifierFailure"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	default:
		return "StorageFailure"
	}
}

// User-facing messages.
const (
	MsgAllFieldsRequired     = "All fields are required"
	MsgPasswordsDoNotMatch   = "Passwords do not match"
	MsgPasswordTooShort      = "Password must be at least 6 characters"
	MsgPasswordTooLong       = "Password must be at most 72 bytes"
	MsgInvalidEmail          = "Invalid email address"
	MsgUsernameTaken         = "Username already taken"
	MsgEmailRegistered       = "Email already registered"
	MsgCredentialsRequired   = "Username and password required"
	MsgInvalidCredentials    = "Invalid credentials"
	MsgInvalidLink           = "Invalid verification link"
	MsgInvalidOrExpiredToken = "Invalid or expired token"
	MsgEmailRequired         = "Email is required"
	MsgInternal              = "Internal server error"
	MsgUnauthorized          = "invalid or expired token"
)

// Error is the service-level error. Message is safe to show to clients;
// Err carries the underlying cause and is never shown in production.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, KindStorage for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func validationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Field: field}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: MsgInternal, Err: fmt.Errorf("%s: %w", op, err)}
}
