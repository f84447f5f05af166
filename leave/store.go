/*
store.go - Persistence collaborator contract

PURPOSE:
  The engine has no storage of its own. It reads employees, requests, and
  adjustments through this interface and writes requests, status changes,
  and ledger entries back through it. Implementations live in store/memory
  (tests, dev) and store/sqlite (production).

APPEND-ONLY CONTRACT:
  AppendLeaveAdjustment is the ONLY write operation on the adjustment
  ledger. No update or delete exists, and implementations must not add one.
  Corrections are new entries.

FILTERING:
  Request queries take a typed RequestFilter with enumerated optional
  fields. Ad hoc query maps are deliberately not part of this contract.
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// REQUEST FILTER - Typed query shape for the collaborator
// =============================================================================

// RequestFilter narrows FindLeaveRequests. Nil/empty fields are ignored.
type RequestFilter struct {
	LeaveType *LeaveType
	Statuses  []RequestStatus
	DateRange *DateRange
}

// DateRange matches requests whose [StartDate, EndDate] overlaps [From, To].
type DateRange struct {
	From Date
	To   Date
}

// Matches reports whether a request passes the filter.
func (f RequestFilter) Matches(r LeaveRequest) bool {
	if f.LeaveType != nil && r.LeaveType != *f.LeaveType {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.DateRange != nil {
		if r.StartDate.After(f.DateRange.To) || r.EndDate.Before(f.DateRange.From) {
			return false
		}
	}
	return true
}

// =============================================================================
// STATUS UPDATE METADATA
// =============================================================================

// StatusMetadata carries the fields set alongside a status change. At maps
// to ApprovedAt or RejectedAt depending on the new status.
type StatusMetadata struct {
	ApproverID      *EmployeeID
	RejectionReason string
	At              time.Time
}

// =============================================================================
// STORE - The persistence collaborator
// =============================================================================

// Store is the minimal persistence contract the engine depends on.
//
// Implementations are responsible for durability and for returning
// *NotFoundError (wrapping ErrNotFound) for unknown identifiers. The engine
// never retries store calls; callers impose their own timeouts via ctx.
type Store interface {
	// GetEmployee returns the employee record, read-only to this engine.
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)

	// ListActiveEmployees returns all active employees, for batch processing.
	ListActiveEmployees(ctx context.Context) ([]Employee, error)

	// GetLeaveRequest returns a single request by ID.
	GetLeaveRequest(ctx context.Context, id RequestID) (LeaveRequest, error)

	// FindLeaveRequests returns an employee's requests passing the filter,
	// ordered by StartDate.
	FindLeaveRequests(ctx context.Context, employeeID EmployeeID, filter RequestFilter) ([]LeaveRequest, error)

	// SaveLeaveRequest creates or replaces a request. Replacement is only
	// legal while the request is pending; the lifecycle enforces this.
	SaveLeaveRequest(ctx context.Context, req LeaveRequest) error

	// UpdateLeaveRequestStatus transitions a request's status and records the
	// transition metadata in one write.
	UpdateLeaveRequestStatus(ctx context.Context, id RequestID, status RequestStatus, meta StatusMetadata) error

	// FindLeaveAdjustments returns ledger entries for an employee-year,
	// optionally narrowed to one type (nil = all types), ordered by CreatedAt.
	FindLeaveAdjustments(ctx context.Context, employeeID EmployeeID, year int, adjType *AdjustmentType) ([]LeaveAdjustment, error)

	// AppendLeaveAdjustment appends a ledger entry. Append-only: no update or
	// delete operation is exposed, ever.
	AppendLeaveAdjustment(ctx context.Context, entry LeaveAdjustment) error
}
