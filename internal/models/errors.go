package models

import "errors"

// Failure taxonomy shared across stores, services and the workflow.
var (
	// ErrValidation marks malformed input; recovered locally by re-prompting.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientBalance is returned by conditional debits that would
	// take the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient token balance")
	// ErrCapacityExceeded is returned when the per-user account cap is hit.
	ErrCapacityExceeded = errors.New("account limit reached")
	// ErrNotFound is returned when a user/account/report does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned uniformly when a store handle is missing
	// or the backend cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrTooManyRetries terminates a workflow after repeated invalid input.
	ErrTooManyRetries = errors.New("too many invalid attempts")
	// ErrCooldown is returned while the per-user report cooldown is armed.
	ErrCooldown = errors.New("report cooldown active")
)
