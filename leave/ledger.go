/*
ledger.go - Append-only adjustment ledger

PURPOSE:
  Records manual balance changes (add / subtract / carry_over /
  cancel_usage) as immutable audit entries. The ledger keeps no running
  total: effect on balance is read back through the aggregator the next
  time a snapshot is computed. Each entry captures previous/new balance as
  a point-in-time audit note only.

WHY APPEND-ONLY?
  Every balance change stays traceable. Mistakes are corrected with new
  entries of the opposite type, never by editing history.

OVERDRAFT:
  Recording an adjustment that drives remaining balance negative is
  permitted; whether to block is a policy decision outside this engine.
  The result flags it so callers can decide.

SEE ALSO:
  - balance.go: How entries feed back into snapshots
  - batch.go: Writes carry_over entries at year end
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
// ADJUSTMENT LEDGER
// =============================================================================

// AdjustmentLedger records manual balance adjustments.
type AdjustmentLedger struct {
	store   Store
	balance *BalanceAggregator
	locks   *employeeLocks
	logger  *zap.Logger

	now   func() time.Time
	newID func() AdjustmentID
}

// NewAdjustmentLedger wires a ledger over the store.
func NewAdjustmentLedger(store Store, balance *BalanceAggregator, locks *employeeLocks, logger *zap.Logger) *AdjustmentLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentLedger{
		store:   store,
		balance: balance,
		locks:   locks,
		logger:  logger,
		now:     time.Now,
		newID:   func() AdjustmentID { return AdjustmentID(uuid.NewString()) },
	}
}

// AdjustmentInput describes a manual balance change.
type AdjustmentInput struct {
	EmployeeID EmployeeID
	Year       int
	Type       AdjustmentType
	Amount     decimal.Decimal // must be > 0; sign comes from Type
	Reason     string
	ActorID    EmployeeID
}

// RecordedAdjustment is the result of recording an entry.
type RecordedAdjustment struct {
	Entry LeaveAdjustment

	// ResultedInOverdraft is true when the entry drove the remaining balance
	// below zero. The write is still performed.
	ResultedInOverdraft bool
}

// RecordAdjustment appends a ledger entry, snapshotting the balance before
// and after for the audit trail.
func (l *AdjustmentLedger) RecordAdjustment(ctx context.Context, in AdjustmentInput) (*RecordedAdjustment, error) {
	if !ValidAdjustmentType(in.Type) {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown adjustment type %q", in.Type)}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if in.Year <= 0 {
		return nil, &ValidationError{Field: "year", Message: "must be a calendar year"}
	}

	var result *RecordedAdjustment
	err := l.locks.withLock(in.EmployeeID, func() error {
		before, err := l.balance.Snapshot(ctx, in.EmployeeID, in.Year)
		if err != nil {
			return err
		}

		previous := before.RemainingLeave
		next := previous.Add(in.Type.SignedAmount(in.Amount))

		entry := LeaveAdjustment{
			ID:              l.newID(),
			EmployeeID:      in.EmployeeID,
			Year:            in.Year,
			Type:            in.Type,
			Amount:          in.Amount,
			PreviousBalance: previous,
			NewBalance:      next,
			Reason:          in.Reason,
			CreatedAt:       l.now(),
			CreatedBy:       in.ActorID,
		}
		if err := l.store.AppendLeaveAdjustment(ctx, entry); err != nil {
			return fmt.Errorf("append adjustment: %w", err)
		}

		result = &RecordedAdjustment{
			Entry:               entry,
			ResultedInOverdraft: next.IsNegative(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("adjustment recorded",
		zap.String("adjustment_id", string(result.Entry.ID)),
		zap.String("employee_id", string(in.EmployeeID)),
		zap.String("type", string(in.Type)),
		zap.String("amount", in.Amount.String()),
		zap.Bool("overdraft", result.ResultedInOverdraft))
	return result, nil
}

// CancelApprovedUsage is the administrative flow for undoing an approved
// request: it restores the request's day count through an auditable
// cancel_usage entry instead of mutating the request's history.
func (l *AdjustmentLedger) CancelApprovedUsage(ctx context.Context, requestID RequestID, reason string, actorID EmployeeID) (*RecordedAdjustment, error) {
	req, err := l.store.GetLeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved {
		return nil, &InvalidTransitionError{RequestID: requestID, From: req.Status, Attempted: "cancel usage for"}
	}

	if reason == "" {
		reason = fmt.Sprintf("cancel usage of request %s", requestID)
	}
	return l.RecordAdjustment(ctx, AdjustmentInput{
		EmployeeID: req.EmployeeID,
		Year:       req.StartDate.Year(),
		Type:       AdjustmentCancelUsage,
		Amount:     req.DaysCount,
		Reason:     reason,
		ActorID:    actorID,
	})
}
