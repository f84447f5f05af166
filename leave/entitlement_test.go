package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// FIRST-YEAR ACCRUAL (1 day per completed month, capped at 11)
// =============================================================================

func TestBaseEntitlement_FirstYear(t *testing.T) {
	var calc leave.EntitlementCalculator

	tests := []struct {
		name string
		hire leave.Date
		asOf leave.Date
		want int64
	}{
		{"five completed months", date(2023, time.January, 15), date(2023, time.June, 15), 5},
		{"hired today", date(2023, time.January, 15), date(2023, time.January, 15), 0},
		{"eleven months hits the cap", date(2023, time.January, 1), date(2023, time.December, 1), 11},
		{"future hire earns nothing", date(2024, time.June, 1), date(2023, time.June, 1), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.BaseEntitlement(tc.hire, tc.asOf)
			assert.True(t, got.Equal(days(float64(tc.want))), "expected %d, got %s", tc.want, got)
		})
	}
}

// =============================================================================
// TENURED STEP FUNCTION (15 + years-1, capped at 25)
// =============================================================================

func TestBaseEntitlement_Tenured(t *testing.T) {
	var calc leave.EntitlementCalculator

	tests := []struct {
		name string
		hire leave.Date
		asOf leave.Date
		want int64
	}{
		{"one full year", date(2022, time.March, 1), date(2023, time.March, 2), 15},
		{"five years of service", date(2018, time.March, 1), date(2024, time.January, 1), 19},
		{"cap at twenty-five", date(1990, time.January, 1), date(2024, time.January, 1), 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.BaseEntitlement(tc.hire, tc.asOf)
			assert.True(t, got.Equal(days(float64(tc.want))), "expected %d, got %s", tc.want, got)
		})
	}
}

// =============================================================================
// MONOTONICITY
// =============================================================================

func TestBaseEntitlement_MonotoneInAsOf(t *testing.T) {
	// GIVEN: A fixed hire date
	// WHEN: asOf advances month by month across the first-year boundary
	// THEN: Entitlement never decreases
	var calc leave.EntitlementCalculator
	hire := date(2023, time.May, 20)

	prev := calc.BaseEntitlement(hire, hire)
	asOf := hire
	for i := 0; i < 48; i++ {
		asOf = asOf.AddMonths(1)
		cur := calc.BaseEntitlement(hire, asOf)
		assert.False(t, cur.LessThan(prev),
			"entitlement decreased from %s to %s at asOf %s", prev, cur, asOf)
		prev = cur
	}
}

func TestBaseEntitlement_YearBoundaryJump(t *testing.T) {
	// Around the one-year mark the rule switches from months (max 11) to the
	// tenured step function (15). The jump is upward, never a reset.
	var calc leave.EntitlementCalculator
	hire := date(2023, time.January, 1)

	before := calc.BaseEntitlement(hire, date(2023, time.December, 31))
	after := calc.BaseEntitlement(hire, date(2024, time.January, 2))

	assert.True(t, before.Equal(days(11)), "got %s", before)
	assert.True(t, after.Equal(days(15)), "got %s", after)
}
