package models

import "errors"

// ErrorKind is the normalized error taxonomy every provider- or
// transport-specific failure is translated into before it leaves the
// identity or API clients.
type ErrorKind string

const (
	ErrInvalidInput        ErrorKind = "invalid_input"
	ErrAccountExists       ErrorKind = "account_exists"
	ErrWeakPassword        ErrorKind = "weak_password"
	ErrInvalidCredentials  ErrorKind = "invalid_credentials"
	ErrAccountNotConfirmed ErrorKind = "account_not_confirmed"
	ErrInvalidCode         ErrorKind = "invalid_code"
	ErrExpiredCode         ErrorKind = "expired_code"
	ErrNotFound            ErrorKind = "not_found"
	ErrNetwork             ErrorKind = "network"
	ErrUnauthorized        ErrorKind = "unauthorized"
	ErrInternal            ErrorKind = "internal"
)

// userMessages maps each kind to the message shown to the user. Raw provider
// payloads never reach state or screens.
var userMessages = map[ErrorKind]string{
	ErrInvalidInput:        "Some fields are missing or invalid",
	ErrAccountExists:       "An account with this email already exists",
	ErrWeakPassword:        "Password does not meet the security requirements",
	ErrInvalidCredentials:  "Incorrect email or password",
	ErrAccountNotConfirmed: "Please confirm your email before signing in",
	ErrInvalidCode:         "Invalid confirmation code",
	ErrExpiredCode:         "Confirmation code has expired, request a new one",
	ErrNotFound:            "No pending registration found for this email",
	ErrNetwork:             "Network error, please try again",
	ErrUnauthorized:        "Your session has expired, please sign in again",
	ErrInternal:            "Something went wrong, please try again",
}

// AuthError is the only error type the SDK surfaces to callers.
type AuthError struct {
	Kind    ErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// UserMessage returns the human-readable message for the error kind.
func (e *AuthError) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[ErrInternal]
}

// NewAuthError builds an AuthError with the canonical message for kind
// unless a more specific one is given.
func NewAuthError(kind ErrorKind, message string) *AuthError {
	if message == "" {
		message = userMessages[kind]
	}
	return &AuthError{Kind: kind, Message: message}
}

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the kind from err, defaulting to ErrInternal for
// anything that escaped normalization.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ErrInternal
}

// UserMessageFor returns the message shown to the user for err.
func UserMessageFor(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return userMessages[ErrInternal]
}
