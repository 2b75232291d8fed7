package rank

import "errors"

var (
	// ErrStoreUnavailable wraps any failure of the relational ledger.
	ErrStoreUnavailable = errors.New("rank ledger unavailable")
	// ErrCacheUnavailable wraps any failure of the ranking cache.
	ErrCacheUnavailable = errors.New("ranking cache unavailable")
	// ErrNegativeCounter means a decrement would drive a ledger counter below zero, which
	// only happens when an upstream event was missed or applied twice.
	ErrNegativeCounter = errors.New("rank counter would become negative")
	// ErrInvalidOutcome is returned for outcomes outside the four known values.
	ErrInvalidOutcome = errors.New("invalid outcome")
	// ErrUnknownUser is returned for events of a user whose account no longer exists.
	ErrUnknownUser = errors.New("rank event for unknown user")
)
