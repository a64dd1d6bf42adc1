package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("actor is not allowed to access this resource")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Persistence errors
	ErrTransient          = errors.New("transient persistence failure")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Redeem codes
	ErrCodeNotFound       = errors.New("redeem code not found")
	ErrCodeAlreadyUsed    = errors.New("redeem code already used")
	ErrCodeExpired        = errors.New("redeem code expired")
	ErrMisconfiguredCode  = errors.New("redeem code is not linked to a question set")
	ErrMisconfiguredData  = errors.New("redeem code references a missing question set")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique redeem code")

	// Question sets and entitlements
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrAccessDenied        = errors.New("no valid entitlement for question set")
	ErrInvalidTransition   = errors.New("purchase status does not allow this operation")
	ErrFreeQuestionSet     = errors.New("question set is free")
)
