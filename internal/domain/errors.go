package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds means the balance is below the asking price.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNotFound covers unknown catalog ids and a missing save.
	ErrNotFound = errors.New("not found")
	// ErrInvariantViolation means a computation would have driven the
	// balance negative or non-finite.
	ErrInvariantViolation = errors.New("invariant violation")
	ErrNotEligible        = errors.New("not eligible for prestige")
	ErrNoGamble           = errors.New("no gamble offer pending")
)

// LoadError reports malformed save content. The session falls back to a
// fresh state and the error is surfaced to the player.
type LoadError struct {
	Line  int
	Field string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load save: line %d (%s): %v", e.Line, e.Field, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
