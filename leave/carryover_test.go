package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================

// newTestEngine pins "today" to 2025-06-15 so entitlement math is stable.
func newTestEngine(t *testing.T) (*leave.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	engine := leave.NewEngine(store, zap.NewNop(), leave.Options{
		Now: func() leave.Date { return date(2025, time.June, 15) },
	})
	return engine, store
}

func seedEmployee(store *memory.Store, id string, hire leave.Date) {
	store.PutEmployee(leave.Employee{ID: leave.EmployeeID(id), HireDate: hire, IsActive: true})
}

// seedApprovedAnnual drops an approved annual request directly into the
// store, bypassing the lifecycle, for calculator-level tests.
func seedApprovedAnnual(t *testing.T, store *memory.Store, id, employeeID string, start, end leave.Date, daysCount decimal.Decimal) {
	t.Helper()
	err := store.SaveLeaveRequest(context.Background(), leave.LeaveRequest{
		ID:         leave.RequestID(id),
		EmployeeID: leave.EmployeeID(employeeID),
		LeaveType:  leave.TypeAnnual,
		StartDate:  start,
		EndDate:    end,
		DaysCount:  daysCount,
		Status:     leave.StatusApproved,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

// =============================================================================
// AUTOMATIC CARRY-OVER
// =============================================================================

func TestCarryOver_UnusedUnderCap(t *testing.T) {
	// GIVEN: Employee with prior-year (2024) entitlement of 20, 8 days used
	// WHEN: Computing carry-over into 2025
	// THEN: unused 12 carries in full (under the 15 cap)
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-2024", "emp-1",
		date(2024, time.July, 1), date(2024, time.July, 10), days(8))

	got, err := engine.CarryOver.CarryOverForYear(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(12), got)
}

func TestCarryOver_CappedAtFifteen(t *testing.T) {
	// GIVEN: Prior-year entitlement 20 with only 2 days used (unused 18)
	// THEN: Automatic carry-over is capped at 15
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-2024", "emp-1",
		date(2024, time.July, 1), date(2024, time.July, 2), days(2))

	got, err := engine.CarryOver.CarryOverForYear(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(15), got)
}

func TestCarryOver_HiredInTargetYear(t *testing.T) {
	// GIVEN: Employee hired in 2025
	// THEN: No prior-year employment, automatic carry-over into 2025 is zero
	engine, store := newTestEngine(t)

	seedEmployee(store, "emp-new", date(2025, time.February, 1))

	got, err := engine.CarryOver.CarryOverForYear(context.Background(), "emp-new", 2025)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestCarryOver_OverusedPriorYearClampsToZero(t *testing.T) {
	// GIVEN: Prior-year usage exceeds entitlement (advance usage happened)
	// THEN: unused clamps to 0, nothing carries
	engine, store := newTestEngine(t)

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-2024", "emp-1",
		date(2024, time.February, 1), date(2024, time.March, 10), days(27))

	got, err := engine.CarryOver.CarryOverForYear(context.Background(), "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "got %s", got)
}

// =============================================================================
// MANUAL LEDGER COMPONENT
// =============================================================================

func TestCarryOver_ManualAndAutomaticSum(t *testing.T) {
	// GIVEN: A manual carry_over entry of 3 for 2025, plus automatic 12
	// THEN: Total is 15; the 15-day cap binds only the automatic component
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-2024", "emp-1",
		date(2024, time.July, 1), date(2024, time.July, 10), days(8))

	require.NoError(t, store.AppendLeaveAdjustment(ctx, leave.LeaveAdjustment{
		ID:         "adj-1",
		EmployeeID: "emp-1",
		Year:       2025,
		Type:       leave.AdjustmentCarryOver,
		Amount:     days(3),
		Reason:     "negotiated carry-over",
		CreatedAt:  time.Now(),
		CreatedBy:  "hr-1",
	}))

	got, err := engine.CarryOver.CarryOverForYear(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, days(15), got)
}

func TestCarryOver_ReadIsIdempotent(t *testing.T) {
	// Calling twice without new ledger writes returns the same value and
	// writes nothing.
	engine, store := newTestEngine(t)
	ctx := context.Background()

	seedEmployee(store, "emp-1", date(2018, time.March, 1))

	first, err := engine.CarryOver.CarryOverForYear(ctx, "emp-1", 2025)
	require.NoError(t, err)
	second, err := engine.CarryOver.CarryOverForYear(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assertDecimalEqual(t, first, second)

	entries, err := store.FindLeaveAdjustments(ctx, "emp-1", 2025, nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "calculator must not write ledger entries")
}
