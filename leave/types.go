/*
types.go - Core records the engine reads and writes

PURPOSE:
  Defines the data the engine exchanges with its persistence collaborator:
  employees (read-only), leave requests, adjustment ledger entries, and the
  derived balance snapshot.

DESIGN PRINCIPLES:
  1. Type-safe identifiers: EmployeeID/RequestID/AdjustmentID cannot be mixed
  2. Precision: day quantities are decimal.Decimal, never float64
  3. Derived values stay derived: DaysCount is always recomputed from the
     request's date range, never trusted from external input
  4. Append-only audit: LeaveAdjustment entries are created, never mutated

SEE ALSO:
  - store.go: Persistence collaborator contract
  - balance.go: BalanceSnapshot computation
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string
type AdjustmentID string

// =============================================================================
// EMPLOYEE - Owned by the user directory, read-only to this engine
// =============================================================================

type Employee struct {
	ID       EmployeeID
	HireDate Date
	IsActive bool
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveType classifies a request. Only TypeAnnual participates in
// entitlement and balance arithmetic; the other types still occupy calendar
// days and therefore still participate in conflict detection.
type LeaveType string

const (
	TypeAnnual   LeaveType = "annual"
	TypeSick     LeaveType = "sick"
	TypePersonal LeaveType = "personal"
	TypeFamily   LeaveType = "family"
)

// ValidLeaveType reports whether t is one of the known leave types.
func ValidLeaveType(t LeaveType) bool {
	switch t {
	case TypeAnnual, TypeSick, TypePersonal, TypeFamily:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool { return s != StatusPending }

// LeaveRequest is a request to take leave over an inclusive date range.
//
// DaysCount is derived from [StartDate, EndDate] via CountLeaveDays at
// creation and edit time. It is stored for querying convenience but is never
// accepted from external input.
type LeaveRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	LeaveType  LeaveType
	StartDate  Date
	EndDate    Date
	DaysCount  decimal.Decimal
	Status     RequestStatus
	Reason     string

	// Advance-usage override: the request was allowed to overdraw the
	// balance. OverdraftDays records how far past zero it went at submit.
	IsAdvanceUsage bool
	OverdraftDays  decimal.Decimal

	CreatedAt       time.Time
	ApproverID      *EmployeeID
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string
}

// =============================================================================
// ADJUSTMENT LEDGER ENTRY - Append-only audit record
// =============================================================================

// AdjustmentType determines the sign an adjustment applies to the effective
// balance. Amounts are stored positive; the type carries the semantics.
type AdjustmentType string

const (
	AdjustmentAdd         AdjustmentType = "add"
	AdjustmentSubtract    AdjustmentType = "subtract"
	AdjustmentCarryOver   AdjustmentType = "carry_over"
	AdjustmentCancelUsage AdjustmentType = "cancel_usage"
)

// ValidAdjustmentType reports whether t is one of the known adjustment types.
func ValidAdjustmentType(t AdjustmentType) bool {
	switch t {
	case AdjustmentAdd, AdjustmentSubtract, AdjustmentCarryOver, AdjustmentCancelUsage:
		return true
	}
	return false
}

// SignedAmount applies the type's sign convention to a stored amount.
func (t AdjustmentType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if t == AdjustmentSubtract {
		return amount.Neg()
	}
	return amount
}

// LeaveAdjustment is one entry in the append-only audit ledger of manual
// balance changes. Entries are never edited or deleted; corrections are new
// entries.
type LeaveAdjustment struct {
	ID         AdjustmentID
	EmployeeID EmployeeID
	Year       int
	Type       AdjustmentType
	Amount     decimal.Decimal // always positive; sign applied by Type

	// Point-in-time audit snapshots computed from the aggregator at the
	// moment of recording. The ledger keeps no running total of its own.
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal

	Reason    string
	CreatedAt time.Time
	CreatedBy EmployeeID
}

// =============================================================================
// BALANCE SNAPSHOT - Derived, recomputed on demand, never stored
// =============================================================================

// BalanceSnapshot is the point-in-time balance view for one employee-year.
//
// Invariants:
//   TotalEntitlement = BaseEntitlement + CarryOverLeave
//   RemainingLeave   = TotalEntitlement + Adjustments - UsedLeave
//
// PendingLeave is reported separately and NOT subtracted from remaining, so
// multiple pending requests stay visible before approval forces a balance
// check. RemainingLeave may legitimately go negative (administrative
// overdraft) and is surfaced as-is, never clamped.
type BalanceSnapshot struct {
	EmployeeID EmployeeID
	Year       int

	BaseEntitlement  decimal.Decimal
	CarryOverLeave   decimal.Decimal
	TotalEntitlement decimal.Decimal
	UsedLeave        decimal.Decimal
	PendingLeave     decimal.Decimal
	Adjustments      decimal.Decimal // net add/subtract/cancel_usage credits
	RemainingLeave   decimal.Decimal
}
