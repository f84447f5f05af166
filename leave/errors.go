/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All engine error kinds in one place. Callers (HTTP handlers, batch CLIs)
  match with errors.Is/errors.As and translate to transport responses.

ERROR CATEGORIES:
  1. Range/validation errors - malformed input (dates, amounts, types)
  2. Lifecycle errors - invalid request state transitions
  3. Business-rule errors - conflicts and balance shortfalls
  4. Lookup errors - unknown employees or requests

All errors here are recoverable at the caller's discretion; none are fatal
to the process. The engine fails fast and descriptively rather than
silently clamping or coercing invalid input.
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInvalidTransition is returned when a lifecycle operation is attempted
	// from a non-matching request state (e.g., approving a rejected request).
	ErrInvalidTransition = errors.New("invalid request transition")

	// ErrConflict is returned when a proposed range overlaps an existing
	// pending or approved request for the same employee.
	ErrConflict = errors.New("overlapping leave request")

	// ErrInsufficientBalance is returned when a request would overdraw the
	// remaining balance without an explicit advance-usage override.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrNotFound is returned for unknown employees or requests.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed amounts, dates, or types.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports a range whose end precedes its start.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InvalidTransitionError reports a lifecycle violation. The request is left
// untouched; the engine guarantees no partial writes on transition failure.
type InvalidTransitionError struct {
	RequestID RequestID
	From      RequestStatus
	Attempted string // "approve", "reject", "cancel", "edit"
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s: status is %s",
		e.Attempted, e.RequestID, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError reports overlapping leave requests.
type ConflictError struct {
	EmployeeID    EmployeeID
	Start         Date
	End           Date
	ConflictCount int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("range [%s, %s] overlaps %d existing request(s) for employee %s",
		e.Start, e.End, e.ConflictCount, e.EmployeeID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InsufficientBalanceError reports a balance shortfall.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Requested  decimal.Decimal
	Remaining  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for employee %s: requested %s, remaining %s",
		e.EmployeeID, e.Requested, e.Remaining)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Shortfall returns how far the request overshoots the remaining balance.
func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Remaining)
}

// NotFoundError reports an unknown employee or request.
type NotFoundError struct {
	Kind string // "employee", "request"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or a
// business-rule refusal, as opposed to a persistence failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
