package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Verification denials. Each maps to its own localized message in the
	// web layer, and none are retryable by resubmitting the same code.
	ErrCodeNotFound        = errors.New("access code not found")
	ErrAccountBanned       = errors.New("account is banned")
	ErrSubscriptionExpired = errors.New("subscription has expired")
	ErrAccountFrozen       = errors.New("account is frozen")

	// Generator errors. ErrDuplicateCode stays inside the generator retry
	// loop and is never surfaced to callers.
	ErrDuplicateCode       = errors.New("access code already issued")
	ErrGenerationExhausted = errors.New("code generation attempts exhausted")

	// Infra errors. ErrStoreUnavailable is the only retryable category.
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrReadDatabaseRow  = errors.New("failed to read database row")
	ErrOperationFailed  = errors.New("operation failed")
)
