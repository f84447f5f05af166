/*
entitlement.go - Base annual entitlement from tenure

PURPOSE:
  Computes how many paid annual-leave days an employee has earned for a
  reference date, from their hire date alone.

THE RULE:
  Year 0 (less than a full year of service):
    1 day per completed calendar month of service, capped at 11.
  Year 1 and beyond:
    15 days, plus 1 per additional full year of service, capped at 25.

MONTH COMPLETION:
  A month is completed when the hire day-of-month has recurred, using exact
  calendar rollover: hired Jan 31, the first completed month is the next
  month-end that exists (Feb 28/29), not a fixed 30-day window. Average-month
  division (days/30.44) is off by one near month boundaries and is not used
  anywhere in this engine.

SEE ALSO:
  - datespan.go: CompletedMonthsBetween
  - carryover.go: Uses this calculator for prior-year entitlement
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// Entitlement rule constants.
const (
	firstYearMonthlyCap = 11 // year-0 accrual: 1 day/completed month, max 11
	tenuredBase         = 15 // entitlement at exactly one year of service
	tenuredCap          = 25 // ceiling for long-tenured employees
)

// daysPerYear is the average year length used for the years-of-service floor.
const daysPerYear = 365.25

// EntitlementCalculator computes base annual entitlement from hire date.
// Stateless and side-effect free.
type EntitlementCalculator struct{}

// BaseEntitlement returns the employee's base annual leave entitlement as of
// the given date.
//
// A hire date in the future relative to asOf yields zero: the employee simply
// has no completed months or years yet. Not an error.
//
// Monotone in asOf: advancing the reference date never decreases the result.
func (EntitlementCalculator) BaseEntitlement(hireDate, asOf Date) decimal.Decimal {
	if hireDate.After(asOf) {
		return decimal.Zero
	}

	years := yearsOfService(hireDate, asOf)
	if years == 0 {
		months := CompletedMonthsBetween(hireDate, asOf)
		if months > firstYearMonthlyCap {
			months = firstYearMonthlyCap
		}
		return decimal.NewFromInt(int64(months))
	}

	days := tenuredBase + (years - 1)
	if days > tenuredCap {
		days = tenuredCap
	}
	return decimal.NewFromInt(int64(days))
}

// yearsOfService is floor(elapsed days / 365.25).
func yearsOfService(hireDate, asOf Date) int {
	elapsed := DaysBetween(hireDate, asOf)
	if elapsed <= 0 {
		return 0
	}
	return int(float64(elapsed) / daysPerYear)
}
