/*
lifecycle.go - Leave request state machine

PURPOSE:
  Governs the transitions of a leave request and the balance checks guarding
  them.

STATES:
  pending (initial) -> approved | rejected | cancelled   (all terminal)

  No transition leaves a terminal state. Cancelling an APPROVED request is
  not a lifecycle transition at all; it is an administrative cancel_usage
  adjustment (see ledger.go) so that the restoration is auditable instead of
  history being silently rewritten.

BALANCE GATES:
  Submit and Edit pre-check annual requests against the remaining balance.
  Approve re-checks, because the snapshot a submit validated against may be
  stale by approval time. The advance-usage override permits a negative
  remaining balance and marks the request with the overdraft amount.

CONCURRENCY:
  Every operation here reads a balance and then writes a state change based
  on it, so each runs inside the employee's serialization lock. Two
  concurrent approvals of overlapping requests therefore cannot both pass
  the balance check against the same stale snapshot.

FAILURE SEMANTICS:
  A transition attempted from a non-matching state fails with
  InvalidTransitionError and performs no writes.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// REQUEST SERVICE
// =============================================================================

// RequestService drives the leave request lifecycle.
type RequestService struct {
	store     Store
	conflicts *ConflictDetector
	balance   *BalanceAggregator
	locks     *employeeLocks
	logger    *zap.Logger

	now   func() time.Time
	newID func() RequestID
}

// NewRequestService wires a lifecycle service over the store.
func NewRequestService(store Store, conflicts *ConflictDetector, balance *BalanceAggregator, locks *employeeLocks, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		store:     store,
		conflicts: conflicts,
		balance:   balance,
		locks:     locks,
		logger:    logger,
		now:       time.Now,
		newID:     func() RequestID { return RequestID(uuid.NewString()) },
	}
}

// SubmitInput describes a new leave request. DaysCount is not an input; it
// is always derived from the range.
type SubmitInput struct {
	EmployeeID EmployeeID
	LeaveType  LeaveType
	StartDate  Date
	EndDate    Date
	Reason     string

	// AllowAdvanceUsage permits the request even when it overdraws the
	// remaining balance. The overdraft is recorded on the request.
	AllowAdvanceUsage bool
}

// EditInput describes an in-place change to a pending request.
type EditInput struct {
	StartDate         Date
	EndDate           Date
	Reason            string
	AllowAdvanceUsage bool
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates and creates a request in pending state.
//
// Fails with ConflictError when the range overlaps an existing pending or
// approved request, and with InsufficientBalanceError when an annual request
// exceeds the remaining balance without the advance-usage override.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (*LeaveRequest, error) {
	if !ValidLeaveType(in.LeaveType) {
		return nil, &ValidationError{Field: "leaveType", Message: fmt.Sprintf("unknown type %q", in.LeaveType)}
	}

	days, err := CountLeaveDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetEmployee(ctx, in.EmployeeID); err != nil {
		return nil, err
	}

	var req *LeaveRequest
	err = s.locks.withLock(in.EmployeeID, func() error {
		conflict, err := s.conflicts.HasConflict(ctx, in.EmployeeID, in.StartDate, in.EndDate, "")
		if err != nil {
			return err
		}
		if conflict.HasConflicts {
			return &ConflictError{
				EmployeeID:    in.EmployeeID,
				Start:         in.StartDate,
				End:           in.EndDate,
				ConflictCount: conflict.ConflictCount,
			}
		}

		advance, overdraft, err := s.checkBalance(ctx, in.EmployeeID, in.LeaveType, in.StartDate.Year(), days, in.AllowAdvanceUsage)
		if err != nil {
			return err
		}

		r := LeaveRequest{
			ID:             s.newID(),
			EmployeeID:     in.EmployeeID,
			LeaveType:      in.LeaveType,
			StartDate:      in.StartDate,
			EndDate:        in.EndDate,
			DaysCount:      days,
			Status:         StatusPending,
			Reason:         in.Reason,
			IsAdvanceUsage: advance,
			OverdraftDays:  overdraft,
			CreatedAt:      s.now(),
		}
		if err := s.store.SaveLeaveRequest(ctx, r); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		req = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", string(req.ID)),
		zap.String("employee_id", string(req.EmployeeID)),
		zap.String("leave_type", string(req.LeaveType)),
		zap.String("days", req.DaysCount.String()),
		zap.Bool("advance_usage", req.IsAdvanceUsage))
	return req, nil
}

// =============================================================================
// APPROVE / REJECT / CANCEL
// =============================================================================

// Approve transitions a pending request to approved. The approver must not
// be the requester. Annual requests are re-checked against the balance at
// this point unless they carry the advance-usage flag.
func (s *RequestService) Approve(ctx context.Context, requestID RequestID, approverID EmployeeID) (*LeaveRequest, error) {
	var approved LeaveRequest

	req, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if approverID == req.EmployeeID {
		return nil, &ValidationError{Field: "approverId", Message: "requester cannot approve their own request"}
	}

	err = s.locks.withLock(req.EmployeeID, func() error {
		// Re-read inside the lock: the request may have been transitioned
		// since the pre-lock read.
		req, err = s.store.GetLeaveRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidTransitionError{RequestID: requestID, From: req.Status, Attempted: "approve"}
		}

		if req.LeaveType == TypeAnnual && !req.IsAdvanceUsage {
			snap, err := s.balance.Snapshot(ctx, req.EmployeeID, req.StartDate.Year())
			if err != nil {
				return err
			}
			if req.DaysCount.GreaterThan(snap.RemainingLeave) {
				return &InsufficientBalanceError{
					EmployeeID: req.EmployeeID,
					Requested:  req.DaysCount,
					Remaining:  snap.RemainingLeave,
				}
			}
		}

		at := s.now()
		meta := StatusMetadata{ApproverID: &approverID, At: at}
		if err := s.store.UpdateLeaveRequestStatus(ctx, requestID, StatusApproved, meta); err != nil {
			return fmt.Errorf("approve request: %w", err)
		}

		approved = req
		approved.Status = StatusApproved
		approved.ApproverID = &approverID
		approved.ApprovedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request approved",
		zap.String("request_id", string(requestID)),
		zap.String("approver_id", string(approverID)))
	return &approved, nil
}

// Reject transitions a pending request to rejected. No balance effect.
func (s *RequestService) Reject(ctx context.Context, requestID RequestID, approverID EmployeeID, reason string) (*LeaveRequest, error) {
	var rejected LeaveRequest

	req, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.locks.withLock(req.EmployeeID, func() error {
		req, err = s.store.GetLeaveRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidTransitionError{RequestID: requestID, From: req.Status, Attempted: "reject"}
		}

		at := s.now()
		meta := StatusMetadata{ApproverID: &approverID, RejectionReason: reason, At: at}
		if err := s.store.UpdateLeaveRequestStatus(ctx, requestID, StatusRejected, meta); err != nil {
			return fmt.Errorf("reject request: %w", err)
		}

		rejected = req
		rejected.Status = StatusRejected
		rejected.ApproverID = &approverID
		rejected.RejectedAt = &at
		rejected.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request rejected",
		zap.String("request_id", string(requestID)),
		zap.String("approver_id", string(approverID)))
	return &rejected, nil
}

// Cancel withdraws a pending request. Approved requests are not cancelled
// here; restoring consumed balance goes through the cancel_usage adjustment
// flow so the restoration leaves an audit trail.
func (s *RequestService) Cancel(ctx context.Context, requestID RequestID) (*LeaveRequest, error) {
	var cancelled LeaveRequest

	req, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	err = s.locks.withLock(req.EmployeeID, func() error {
		req, err = s.store.GetLeaveRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidTransitionError{RequestID: requestID, From: req.Status, Attempted: "cancel"}
		}

		if err := s.store.UpdateLeaveRequestStatus(ctx, requestID, StatusCancelled, StatusMetadata{At: s.now()}); err != nil {
			return fmt.Errorf("cancel request: %w", err)
		}

		cancelled = req
		cancelled.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request cancelled", zap.String("request_id", string(requestID)))
	return &cancelled, nil
}

// =============================================================================
// EDIT
// =============================================================================

// Edit changes the dates/reason of a pending request in place, re-running
// conflict detection (excluding the request itself) and the balance
// pre-check against the recomputed day count.
func (s *RequestService) Edit(ctx context.Context, requestID RequestID, in EditInput) (*LeaveRequest, error) {
	days, err := CountLeaveDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	req, err := s.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var edited LeaveRequest
	err = s.locks.withLock(req.EmployeeID, func() error {
		req, err = s.store.GetLeaveRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidTransitionError{RequestID: requestID, From: req.Status, Attempted: "edit"}
		}

		conflict, err := s.conflicts.HasConflict(ctx, req.EmployeeID, in.StartDate, in.EndDate, requestID)
		if err != nil {
			return err
		}
		if conflict.HasConflicts {
			return &ConflictError{
				EmployeeID:    req.EmployeeID,
				Start:         in.StartDate,
				End:           in.EndDate,
				ConflictCount: conflict.ConflictCount,
			}
		}

		advance, overdraft, err := s.checkBalance(ctx, req.EmployeeID, req.LeaveType, in.StartDate.Year(), days, in.AllowAdvanceUsage)
		if err != nil {
			return err
		}

		updated := req
		updated.StartDate = in.StartDate
		updated.EndDate = in.EndDate
		updated.DaysCount = days
		updated.Reason = in.Reason
		updated.IsAdvanceUsage = advance
		updated.OverdraftDays = overdraft

		if err := s.store.SaveLeaveRequest(ctx, updated); err != nil {
			return fmt.Errorf("save edited request: %w", err)
		}
		edited = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request edited",
		zap.String("request_id", string(requestID)),
		zap.String("days", edited.DaysCount.String()))
	return &edited, nil
}

// =============================================================================
// BALANCE PRE-CHECK
// =============================================================================

// checkBalance applies the annual-balance gate. Non-annual types bypass it
// entirely. Returns the advance-usage flag and overdraft depth to stamp on
// the request.
func (s *RequestService) checkBalance(ctx context.Context, employeeID EmployeeID, leaveType LeaveType, year int, days decimal.Decimal, allowAdvance bool) (advance bool, overdraft decimal.Decimal, err error) {
	if leaveType != TypeAnnual {
		return false, decimal.Zero, nil
	}

	snap, err := s.balance.Snapshot(ctx, employeeID, year)
	if err != nil {
		return false, decimal.Zero, err
	}

	if !days.GreaterThan(snap.RemainingLeave) {
		return false, decimal.Zero, nil
	}
	if !allowAdvance {
		return false, decimal.Zero, &InsufficientBalanceError{
			EmployeeID: employeeID,
			Requested:  days,
			Remaining:  snap.RemainingLeave,
		}
	}
	return true, days.Sub(snap.RemainingLeave), nil
}
