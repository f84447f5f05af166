/*
conflict.go - Overlap detection between leave requests

PURPOSE:
  Determines whether a proposed date range overlaps any existing pending or
  approved request for the same employee. An employee cannot be on two kinds
  of leave on the same day, so conflict detection spans ALL leave types, not
  just annual.

OVERLAP RULE:
  [s, e] overlaps [s', e']  iff  s <= e' AND e >= s'

  This single symmetric test covers all three sub-cases: candidate start
  inside the existing range, candidate end inside it, and candidate fully
  containing it. Checking only one direction under-detects containment.

SELF-EXCLUSION:
  Editing a pending request in place must not conflict with itself, so the
  caller passes its own ID to exclude.
*/
package leave

import (
	"context"
	"fmt"
)

// ConflictResult reports the outcome of a conflict check.
type ConflictResult struct {
	HasConflicts  bool
	ConflictCount int
	Conflicting   []RequestID
}

// ConflictDetector checks proposed ranges against existing requests.
// Read-only; no side effects.
type ConflictDetector struct {
	Store Store
}

// HasConflict reports whether [start, end] overlaps any pending or approved
// request for the employee. excludeRequestID ("" for none) lets an in-place
// edit ignore itself.
func (c *ConflictDetector) HasConflict(ctx context.Context, employeeID EmployeeID, start, end Date, excludeRequestID RequestID) (ConflictResult, error) {
	if end.Before(start) {
		return ConflictResult{}, &InvalidRangeError{Start: start, End: end}
	}

	existing, err := c.Store.FindLeaveRequests(ctx, employeeID, RequestFilter{
		Statuses:  []RequestStatus{StatusPending, StatusApproved},
		DateRange: &DateRange{From: start, To: end},
	})
	if err != nil {
		return ConflictResult{}, fmt.Errorf("load requests for conflict check: %w", err)
	}

	var result ConflictResult
	for _, r := range existing {
		if r.ID == excludeRequestID {
			continue
		}
		if Overlaps(start, end, r.StartDate, r.EndDate) {
			result.ConflictCount++
			result.Conflicting = append(result.Conflicting, r.ID)
		}
	}
	result.HasConflicts = result.ConflictCount > 0
	return result, nil
}

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day. Symmetric in its arguments.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && aEnd.AfterOrEqual(bStart)
}
