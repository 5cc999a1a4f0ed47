package models

import "errors"

// Named guard failures. Every one aborts the whole operation with no partial
// state change; services wrap them with pkg/domain-errors codes, and the
// chain stays intact for errors.Is.
var (
	// Eligibility.
	ErrNotAuthorized     = errors.New("issuer not authorized")
	ErrTermExpired       = errors.New("issuer term expired")
	ErrAlreadyAuthorized = errors.New("issuer already authorized")
	ErrCapReached        = errors.New("issuer cap reached")
	ErrCooldownActive    = errors.New("issuer cooldown active")

	// Target validity.
	ErrInvalidTarget   = errors.New("invalid authorization target")
	ErrInvalidReceiver = errors.New("invalid mint receiver")

	// Economic bounds.
	ErrExceedsMintFactor = errors.New("requested amount exceeds mint factor")
	ErrNonPositiveAmount = errors.New("requested amount must be positive")

	// Timing.
	ErrTermNotExpired = errors.New("issuer term not yet expired")
)
