package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SNAPSHOT ARITHMETIC
// =============================================================================

func TestSnapshot_CombinesAllComponents(t *testing.T) {
	// GIVEN (today pinned to 2025-06-15):
	//   hired 2018-03-01     -> base entitlement 21
	//   2024: used 8 of 20   -> carry-over 12
	//   2025: 4 approved, 3 pending annual days
	// THEN:
	//   total = 33, used = 4, pending = 3, remaining = 29
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-2024", "emp-1",
		date(2024, time.July, 1), date(2024, time.July, 10), days(8))
	seedApprovedAnnual(t, store, "req-2025", "emp-1",
		date(2025, time.March, 3), date(2025, time.March, 6), days(4))

	require.NoError(t, store.SaveLeaveRequest(ctx, leave.LeaveRequest{
		ID:         "req-pending",
		EmployeeID: "emp-1",
		LeaveType:  leave.TypeAnnual,
		StartDate:  date(2025, time.August, 4),
		EndDate:    date(2025, time.August, 6),
		DaysCount:  days(3),
		Status:     leave.StatusPending,
		CreatedAt:  time.Now(),
	}))

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)

	assertDecimalEqual(t, days(21), snap.BaseEntitlement)
	assertDecimalEqual(t, days(12), snap.CarryOverLeave)
	assertDecimalEqual(t, days(33), snap.TotalEntitlement)
	assertDecimalEqual(t, days(4), snap.UsedLeave)
	assertDecimalEqual(t, days(3), snap.PendingLeave)
	assertDecimalEqual(t, days(29), snap.RemainingLeave)

	// Pending is reported separately, never pre-subtracted from remaining.
	assertDecimalEqual(t, snap.TotalEntitlement.Sub(snap.UsedLeave), snap.RemainingLeave)
}

func TestSnapshot_NonAnnualTypesDoNotTouchBalance(t *testing.T) {
	// GIVEN: An approved sick request in the snapshot year
	// THEN: Used/pending count only annual requests
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	require.NoError(t, store.SaveLeaveRequest(ctx, leave.LeaveRequest{
		ID:         "req-sick",
		EmployeeID: "emp-1",
		LeaveType:  leave.TypeSick,
		StartDate:  date(2025, time.April, 7),
		EndDate:    date(2025, time.April, 9),
		DaysCount:  days(3),
		Status:     leave.StatusApproved,
		CreatedAt:  time.Now(),
	}))

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, snap.UsedLeave.IsZero(), "sick leave must not consume annual balance")
}

func TestSnapshot_SubtractAdjustmentCanDriveRemainingNegative(t *testing.T) {
	// GIVEN: A subtract adjustment larger than the whole entitlement
	// THEN: Remaining goes negative and is surfaced as-is, not clamped
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))

	require.NoError(t, store.AppendLeaveAdjustment(ctx, leave.LeaveAdjustment{
		ID:         "adj-sub",
		EmployeeID: "emp-1",
		Year:       2025,
		Type:       leave.AdjustmentSubtract,
		Amount:     days(40),
		Reason:     "correction",
		CreatedAt:  time.Now(),
		CreatedBy:  "hr-1",
	}))

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)

	assert.True(t, snap.RemainingLeave.IsNegative(),
		"overdraft must stay visible, got %s", snap.RemainingLeave)
	assert.False(t, snap.TotalEntitlement.IsNegative(),
		"total entitlement never goes negative")
}

func TestSnapshot_AddAndCancelUsageCredit(t *testing.T) {
	// add and cancel_usage raise the effective remaining; amounts are stored
	// positive with the sign carried by the type.
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))

	base, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)

	for _, entry := range []leave.LeaveAdjustment{
		{ID: "adj-add", EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentAdd, Amount: days(2), CreatedAt: time.Now()},
		{ID: "adj-cu", EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentCancelUsage, Amount: days(1), CreatedAt: time.Now()},
	} {
		require.NoError(t, store.AppendLeaveAdjustment(ctx, entry))
	}

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, base.RemainingLeave.Add(days(3)), snap.RemainingLeave)
	assertDecimalEqual(t, days(3), snap.Adjustments)
}

func TestSnapshot_UnknownEmployee(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Snapshot(context.Background(), "nobody", 2025)
	require.Error(t, err)
	assert.True(t, leave.IsNotFound(err))
}
