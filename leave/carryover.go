/*
carryover.go - Carry-over from the prior year into the target year

PURPOSE:
  Computes how much unused entitlement transfers into a year. Two additive
  sources:

  1. Manual ledger total: carry_over adjustments already recorded for the
     target year (written by admins or by the year-end batch).
  2. Automatic computation from the immediately preceding year: prior-year
     entitlement minus prior-year approved annual usage, clamped at zero and
     capped at automaticCarryOverCap days.

IDEMPOTENCY:
  CarryOverForYear is a pure read. Calling it twice before any new ledger
  entry is written returns the same value; writing the carry_over ledger
  entry is the year-end batch's job, never this calculator's.

SEE ALSO:
  - batch.go: Persists automatic carry-over at year end
  - balance.go: Feeds carry-over into the balance snapshot
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// automaticCarryOverCap limits the computed carry-over component, regardless
// of how much entitlement went unused. The manual ledger is not subject to
// this cap.
var automaticCarryOverCap = decimal.NewFromInt(15)

// CarryOverCalculator combines manual carry-over ledger entries with the
// automatically computed carry-over from the preceding year.
type CarryOverCalculator struct {
	Store       Store
	Entitlement EntitlementCalculator
}

// CarryOverForYear returns the total carry-over credited to the employee for
// targetYear: manual ledger total plus the automatic prior-year component.
// Read-only; writes nothing.
func (c *CarryOverCalculator) CarryOverForYear(ctx context.Context, employeeID EmployeeID, targetYear int) (decimal.Decimal, error) {
	manual, err := c.manualLedgerTotal(ctx, employeeID, targetYear)
	if err != nil {
		return decimal.Zero, err
	}

	automatic, err := c.AutomaticCarryOver(ctx, employeeID, targetYear)
	if err != nil {
		return decimal.Zero, err
	}

	return manual.Add(automatic), nil
}

// AutomaticCarryOver computes the carry-over earned by leaving entitlement
// unused in the year before targetYear:
//
//	unused = max(0, priorYearEntitlement - priorYearApprovedAnnualUsage)
//	carry  = min(unused, automaticCarryOverCap)
//
// Employees hired in or after targetYear were not employed in the prior year
// and carry nothing automatically.
func (c *CarryOverCalculator) AutomaticCarryOver(ctx context.Context, employeeID EmployeeID, targetYear int) (decimal.Decimal, error) {
	emp, err := c.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load employee for carry-over: %w", err)
	}

	if emp.HireDate.Year() >= targetYear {
		return decimal.Zero, nil
	}

	priorYear := targetYear - 1
	entitlement := c.Entitlement.BaseEntitlement(emp.HireDate, EndOfYear(priorYear))

	used, err := c.approvedAnnualUsage(ctx, employeeID, priorYear)
	if err != nil {
		return decimal.Zero, err
	}

	unused := entitlement.Sub(used)
	if unused.IsNegative() {
		return decimal.Zero, nil
	}
	if unused.GreaterThan(automaticCarryOverCap) {
		return automaticCarryOverCap, nil
	}
	return unused, nil
}

// manualLedgerTotal sums carry_over ledger entries recorded for the year.
func (c *CarryOverCalculator) manualLedgerTotal(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error) {
	carryType := AdjustmentCarryOver
	entries, err := c.Store.FindLeaveAdjustments(ctx, employeeID, year, &carryType)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load carry-over ledger: %w", err)
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// approvedAnnualUsage sums DaysCount over approved annual requests whose
// StartDate falls within the calendar year.
func (c *CarryOverCalculator) approvedAnnualUsage(ctx context.Context, employeeID EmployeeID, year int) (decimal.Decimal, error) {
	annual := TypeAnnual
	reqs, err := c.Store.FindLeaveRequests(ctx, employeeID, RequestFilter{
		LeaveType: &annual,
		Statuses:  []RequestStatus{StatusApproved},
		DateRange: &DateRange{From: StartOfYear(year), To: EndOfYear(year)},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("load prior-year usage: %w", err)
	}

	total := decimal.Zero
	for _, r := range reqs {
		// The date-range filter matches overlap; usage is attributed to the
		// year the leave starts in.
		if r.StartDate.Year() != year {
			continue
		}
		total = total.Add(r.DaysCount)
	}
	return total, nil
}
