// Package common defines shared constants and sentinel errors used across
// FileVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (empty file, empty or unusable filename,
	// malformed share request).
	ErrorValidation = errors.New("validation error")

	// ErrorAccessDenied covers every authorization failure. It is
	// deliberately coarse: a file that does not exist and a file owned by
	// someone else produce the same error, so callers cannot enumerate ids.
	ErrorAccessDenied = errors.New("access denied")

	// ErrorAlreadyShared is returned when a grant for the same
	// (file, grantee) pair already exists.
	ErrorAlreadyShared = errors.New("already shared")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
