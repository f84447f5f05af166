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
// RECORDING ADJUSTMENTS
// =============================================================================

func TestRecordAdjustment_CapturesAuditBalances(t *testing.T) {
	// GIVEN: An employee with a known remaining balance
	// WHEN: Recording a subtract adjustment of 4
	// THEN: The entry's previous/new balances bracket the change and the
	//       snapshot reflects it on the next read
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))

	base, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	// Tenured base 15 plus 11 first-year days carried from 2024.
	assertDecimalEqual(t, days(26), base.RemainingLeave)

	rec, err := engine.Ledger.RecordAdjustment(ctx, leave.AdjustmentInput{
		EmployeeID: "emp-1",
		Year:       2025,
		Type:       leave.AdjustmentSubtract,
		Amount:     days(4),
		Reason:     "payroll correction",
		ActorID:    "hr-1",
	})
	require.NoError(t, err)

	assertDecimalEqual(t, days(26), rec.Entry.PreviousBalance)
	assertDecimalEqual(t, days(22), rec.Entry.NewBalance)
	assert.False(t, rec.ResultedInOverdraft)
	assert.Equal(t, leave.EmployeeID("hr-1"), rec.Entry.CreatedBy)

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(22), snap.RemainingLeave)
}

func TestRecordAdjustment_FlagsOverdraft(t *testing.T) {
	// A subtract beyond the remaining balance still writes, but the result
	// carries the overdraft flag.
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10)) // remaining 26

	rec, err := engine.Ledger.RecordAdjustment(ctx, leave.AdjustmentInput{
		EmployeeID: "emp-1",
		Year:       2025,
		Type:       leave.AdjustmentSubtract,
		Amount:     days(30),
		Reason:     "clawback",
		ActorID:    "hr-1",
	})
	require.NoError(t, err)

	assert.True(t, rec.ResultedInOverdraft)
	assertDecimalEqual(t, days(-4), rec.Entry.NewBalance)

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(-4), snap.RemainingLeave)
}

func TestRecordAdjustment_Validation(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(store, "emp-1", date(2024, time.January, 10))

	tests := []struct {
		name  string
		input leave.AdjustmentInput
	}{
		{"unknown type", leave.AdjustmentInput{EmployeeID: "emp-1", Year: 2025, Type: "bonus", Amount: days(1)}},
		{"zero amount", leave.AdjustmentInput{EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentAdd, Amount: days(0)}},
		{"negative amount", leave.AdjustmentInput{EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentAdd, Amount: days(-2)}},
		{"missing year", leave.AdjustmentInput{EmployeeID: "emp-1", Type: leave.AdjustmentAdd, Amount: days(1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Ledger.RecordAdjustment(ctx, tc.input)
			assert.ErrorIs(t, err, leave.ErrValidation)
		})
	}

	entries, err := store.FindLeaveAdjustments(ctx, "emp-1", 2025, nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected inputs must not reach the ledger")
}

func TestRecordAdjustment_LedgerIsAppendOnly(t *testing.T) {
	// A mistake is corrected with a compensating entry; both stay visible.
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))

	_, err := engine.Ledger.RecordAdjustment(ctx, leave.AdjustmentInput{
		EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentSubtract, Amount: days(5), ActorID: "hr-1",
	})
	require.NoError(t, err)
	_, err = engine.Ledger.RecordAdjustment(ctx, leave.AdjustmentInput{
		EmployeeID: "emp-1", Year: 2025, Type: leave.AdjustmentAdd, Amount: days(5),
		Reason: "reversal of payroll correction", ActorID: "hr-1",
	})
	require.NoError(t, err)

	entries, err := store.FindLeaveAdjustments(ctx, "emp-1", 2025, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	snap, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(26), snap.RemainingLeave)
}

// =============================================================================
// CANCELLING APPROVED USAGE
// =============================================================================

func TestCancelApprovedUsage_RestoresBalance(t *testing.T) {
	// GIVEN: An approved 4-day annual request
	// WHEN: HR cancels its usage
	// THEN: A cancel_usage entry credits the days back; the request record
	//       itself is untouched
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))
	seedApprovedAnnual(t, store, "req-1", "emp-1",
		date(2025, time.March, 3), date(2025, time.March, 6), days(4))

	before, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(22), before.RemainingLeave)

	rec, err := engine.Ledger.CancelApprovedUsage(ctx, "req-1", "booked in error", "hr-1")
	require.NoError(t, err)

	assert.Equal(t, leave.AdjustmentCancelUsage, rec.Entry.Type)
	assertDecimalEqual(t, days(4), rec.Entry.Amount)
	assertDecimalEqual(t, days(22), rec.Entry.PreviousBalance)
	assertDecimalEqual(t, days(26), rec.Entry.NewBalance)
	assert.Equal(t, "booked in error", rec.Entry.Reason)

	after, err := engine.Snapshot(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(26), after.RemainingLeave)

	req, err := store.GetLeaveRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, req.Status, "the request record stays as-is")
}

func TestCancelApprovedUsage_RequiresApprovedStatus(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2024, time.January, 10))
	require.NoError(t, store.SaveLeaveRequest(ctx, leave.LeaveRequest{
		ID: "req-pending", EmployeeID: "emp-1", LeaveType: leave.TypeAnnual,
		StartDate: date(2025, time.March, 3), EndDate: date(2025, time.March, 6),
		DaysCount: days(4), Status: leave.StatusPending,
	}))

	_, err := engine.Ledger.CancelApprovedUsage(ctx, "req-pending", "", "hr-1")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestCancelApprovedUsage_UnknownRequest(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Ledger.CancelApprovedUsage(context.Background(), "req-missing", "", "hr-1")
	assert.True(t, leave.IsNotFound(err))
}
