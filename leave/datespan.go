/*
Package leave implements the leave entitlement, carry-over, and
conflict-resolution engine.

PURPOSE:
  Given an employee's hire date, their history of leave requests, and a
  ledger of manual balance adjustments, the engine computes how many paid
  leave days the employee has earned, how many remain, and whether a new
  request can be granted without violating balance or scheduling rules.

KEY CONCEPTS IN THIS FILE (datespan.go):
  - Date: A calendar day (UTC, day granularity) used everywhere dates appear
  - CountLeaveDays: Inclusive day-range counting with weekday weighting

DAY WEIGHTING:
  Sunday    contributes 0.0 days
  Saturday  contributes 0.5 days
  Mon-Fri   contribute  1.0 day each

  No holiday calendar is consulted. That simplification is deliberate and
  should be extended explicitly, never silently.

DESIGN PRINCIPLES:
  1. Precision: day counts are decimal.Decimal, never float64
  2. Purity: counting is deterministic with no side effects
  3. Day granularity: all Dates are normalized to midnight UTC

SEE ALSO:
  - entitlement.go: Uses completed-month counting defined here
  - conflict.go: Uses Date comparisons for overlap detection
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar day at UTC midnight
// =============================================================================

// Date is a calendar day. The engine never cares about time of day, so all
// Dates are normalized to midnight UTC.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }
func (d Date) AddYears(n int) Date  { return DateOf(d.t.AddDate(n, 0, 0)) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// DaysBetween returns the number of whole days from a to b (negative when b
// precedes a).
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// Year boundaries, used by carry-over and the year-end batch.
func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

// =============================================================================
// DAY COUNTING - How many leave days does a date range consume?
// =============================================================================

var (
	fullDay = decimal.NewFromInt(1)
	halfDay = decimal.NewFromFloat(0.5)
)

// CountLeaveDays counts the leave days consumed by the inclusive range
// [start, end]. Sundays are free, Saturdays count as half a day, and all
// other weekdays count as a full day.
//
// Returns ErrInvalidRange when end precedes start.
func CountLeaveDays(start, end Date) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, &InvalidRangeError{Start: start, End: end}
	}

	total := decimal.Zero
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		switch d.Weekday() {
		case time.Sunday:
			// free
		case time.Saturday:
			total = total.Add(halfDay)
		default:
			total = total.Add(fullDay)
		}
	}
	return total, nil
}

// CompletedMonthsBetween counts the completed calendar months of service from
// 'from' to 'asOf'. A month is completed when the same day-of-month has
// recurred; hires late in a month complete their month on the next month-end
// that exists (Jan 31 -> Feb 28/29 counts as one month).
func CompletedMonthsBetween(from, asOf Date) int {
	if asOf.Before(from) {
		return 0
	}

	months := 0
	// AddDate rolls short months forward (Jan 31 + 1 month = Mar 2/3), so we
	// anchor each step on the original day-of-month and clamp to month end.
	for {
		next := anniversaryAfterMonths(from, months+1)
		if next.After(asOf) {
			return months
		}
		months++
	}
}

// anniversaryAfterMonths returns the date n calendar months after d, clamped
// to the last day of the target month when d's day-of-month does not exist
// there.
func anniversaryAfterMonths(d Date, n int) Date {
	year, month := d.Year(), d.Month()
	totalMonths := int(month) - 1 + n
	targetYear := year + totalMonths/12
	targetMonth := time.Month(totalMonths%12 + 1)

	day := d.Day()
	if last := lastDayOfMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return NewDate(targetYear, targetMonth, day)
}

func lastDayOfMonth(year int, month time.Month) int {
	return NewDate(year, month+1, 1).AddDays(-1).Day()
}
