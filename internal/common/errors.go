// Package common defines shared constants and sentinel errors used across
// store, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrInvalidRecord = errors.New("invalid record")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registration and login outcomes.
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidPasswordLength = errors.New("invalid password length")
	ErrDuplicateAccount      = errors.New("duplicate account")
	ErrAccountNotFound       = errors.New("account not found")
	ErrNoPassword            = errors.New("account has no password")
	ErrInvalidCredential     = errors.New("invalid credential")
	ErrUnverified            = errors.New("email not verified")

	// Session errors (missing, invalid or expired token, unknown principal).
	ErrMissingToken     = errors.New("missing token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidPrincipal = errors.New("invalid principal")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// DuplicateKeyError reports a unique index violation on a logical field:
// "email", "verification_token", "reset_token" or "external_id".
type DuplicateKeyError struct {
	Field string
}

func (e DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("%v: %s", ErrDuplicateKey, e.Field)
}

func (e DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// IsDuplicateField reports whether err is a DuplicateKeyError for field.
func IsDuplicateField(err error, field string) bool {
	var de DuplicateKeyError
	if !errors.As(err, &de) {
		return false
	}
	return de.Field == field
}

// Internal marks err as a server-side failure while keeping it in the chain
// for logging.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrorInternal, err)
}
