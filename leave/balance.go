/*
balance.go - Point-in-time balance snapshot for one employee-year

PURPOSE:
  Answers "how much leave does this employee have?" by combining base
  entitlement, carry-over, approved usage, pending usage, and manual
  adjustments. Read-only: the snapshot is recomputed on demand and never
  stored as authoritative state.

ARITHMETIC:
  TotalEntitlement = BaseEntitlement + CarryOverLeave
  Adjustments      = add + cancel_usage - subtract   (carry_over entries are
                     already inside CarryOverLeave and are not double-counted)
  RemainingLeave   = TotalEntitlement + Adjustments - UsedLeave

  Pending usage is reported separately, not subtracted; the balance check at
  approval time is what ultimately gates overlapping pending requests.

NEGATIVE REMAINING:
  A later manual subtract (or an advance-usage approval) can push remaining
  below zero. That overdraft must stay visible to callers, so remaining is
  surfaced as-is, never clamped. TotalEntitlement itself never goes negative.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceAggregator computes balance snapshots. Read-only; no side effects.
type BalanceAggregator struct {
	Store       Store
	Entitlement EntitlementCalculator
	CarryOver   *CarryOverCalculator

	// Now supplies "today" for base entitlement. Tests pin it; production
	// leaves it nil and gets the real clock.
	Now func() Date
}

func (b *BalanceAggregator) today() Date {
	if b.Now != nil {
		return b.Now()
	}
	return Today()
}

// Snapshot computes the balance view for one employee-year.
func (b *BalanceAggregator) Snapshot(ctx context.Context, employeeID EmployeeID, year int) (BalanceSnapshot, error) {
	emp, err := b.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("load employee for snapshot: %w", err)
	}

	base := b.Entitlement.BaseEntitlement(emp.HireDate, b.today())

	carry, err := b.CarryOver.CarryOverForYear(ctx, employeeID, year)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	used, err := b.annualUsage(ctx, employeeID, year, StatusApproved)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	pending, err := b.annualUsage(ctx, employeeID, year, StatusPending)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	adjustments, err := b.netAdjustments(ctx, employeeID, year)
	if err != nil {
		return BalanceSnapshot{}, err
	}

	total := base.Add(carry)
	if total.IsNegative() {
		// Base and carry-over are individually non-negative, so this cannot
		// happen; guard the invariant anyway.
		total = decimal.Zero
	}

	return BalanceSnapshot{
		EmployeeID:       employeeID,
		Year:             year,
		BaseEntitlement:  base,
		CarryOverLeave:   carry,
		TotalEntitlement: total,
		UsedLeave:        used,
		PendingLeave:     pending,
		Adjustments:      adjustments,
		RemainingLeave:   total.Add(adjustments).Sub(used),
	}, nil
}

// annualUsage sums DaysCount over annual requests with the given status whose
// StartDate falls within the year.
func (b *BalanceAggregator) annualUsage(ctx context.Context, employeeID EmployeeID, year int, status RequestStatus) (decimal.Decimal, error) {
	annual := TypeAnnual
	reqs, err := b.Store.FindLeaveRequests(ctx, employeeID, RequestFilter{
		LeaveType: &annual,
		Statuses:  []RequestStatus{status},
		DateRange: &DateRange{From: StartOfYear(year), To: EndOfYear(year)},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("load %s usage: %w", status, err)
	}

	total := decimal.Zero
	for _, r := range reqs {
		if r.StartDate.Year() != year {
			continue
		}
		total = total.Add(r.DaysCount)
	}
	return total, nil
}

// netAdjustments sums the year's non-carry-over ledger entries with their
// type's sign applied. Carry-over entries are excluded here because the
// carry-over calculator already credits them.
func (b *BalanceAggregator) netAdjustments(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error) {
	entries, err := b.Store.FindLeaveAdjustments(ctx, employeeID, year, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load adjustments: %w", err)
	}

	total := decimal.Zero
	for _, e := range entries {
		if e.Type == AdjustmentCarryOver {
			continue
		}
		total = total.Add(e.Type.SignedAmount(e.Amount))
	}
	return total, nil
}
