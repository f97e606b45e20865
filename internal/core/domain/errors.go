package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	// ErrLockHeld means another registration of the same email is in flight.
	// It says nothing about whether the email exists.
	ErrLockHeld = errors.New("registration already in progress")
)

// Token failure kinds. They are always wrapped under ErrInvalidToken and only
// ever reach logs, never a client.
var (
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenMalformed  = errors.New("token malformed")
	ErrTokenSignature  = errors.New("token signature mismatch")
	ErrTokenWrongClass = errors.New("token class not accepted")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return ErrValidation.Error()
		}
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TokenFailureKind names the reason a token was rejected, for logs and metrics.
func TokenFailureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "signature"
	case errors.Is(err, ErrTokenWrongClass):
		return "wrong_class"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
