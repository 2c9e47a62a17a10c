/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is()/errors.As() and decide retry behavior.

ERROR CATEGORIES:
  1. Not-found errors   - referenced sale/profile does not exist (permanent)
  2. State errors       - sale ineligible for ledger generation (permanent)
  3. Computation errors - inconsistent numeric inputs (permanent)
  4. Persistence errors - transaction failed to commit (retryable)

USAGE:
  res, err := sync.SyncSaleLedgers(ctx, saleID, opts)
  if commission.IsNotFound(err) {
      // 404, do not retry
  } else if commission.IsRetryable(err) {
      // requeue the sync job
  }

SEE ALSO:
  - sync.go: Produces these errors
  - formula.go: Produces ComputationError
*/
package commission

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSaleNotFound is returned when the referenced sale does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrProfileNotFound is returned when a referenced profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidSaleState is returned when the sale is cancelled or not yet
	// confirmed. Ledger generation is only meaningful for confirmed sales.
	ErrInvalidSaleState = errors.New("sale not eligible for ledger generation")

	// ErrComputation is returned when the formula received inconsistent
	// numeric inputs (e.g. a negative sale amount).
	ErrComputation = errors.New("commission computation failed")

	// ErrPersistence is returned when the ledger transaction failed to
	// commit. The previous ledger state is fully intact.
	ErrPersistence = errors.New("ledger persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidStateError reports a sale whose lifecycle status forbids ledger
// generation.
type InvalidStateError struct {
	SaleID SaleID
	Status SaleStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("sale %s is %s: %v", e.SaleID, e.Status, ErrInvalidSaleState)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidSaleState }

// ComputationError names the offending input field so callers can surface
// a precise message.
type ComputationError struct {
	SaleID SaleID
	Field  string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("sale %s: field %s: %s", e.SaleID, e.Field, e.Reason)
}

func (e *ComputationError) Unwrap() error { return ErrComputation }

// PersistenceError wraps a failed store operation. The underlying cause is
// kept for logging; matching is done against ErrPersistence.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSaleNotFound) || errors.Is(err, ErrProfileNotFound)
}

// IsInvalidState returns true if the sale's lifecycle forbids the call.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidSaleState)
}

// IsComputation returns true if the formula rejected its inputs.
func IsComputation(err error) bool {
	return errors.Is(err, ErrComputation)
}

// IsRetryable returns true if the error might succeed on retry.
// Only persistence failures are transient; everything else is permanent.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
