package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// seedPopulation builds the roster every batch test runs against:
//
//	emp-under   tenured, used 8 of 20 in 2024  -> carries 12
//	emp-capped  tenured, used 2 of 20 in 2024  -> unused 18, capped at 15
//	emp-new     hired 2025                     -> no prior-year employment
//	emp-over    tenured, used 27 of 20 in 2024 -> nothing unused
//	emp-broken  missing hire date              -> per-employee error
func seedPopulation(t *testing.T, store *memory.Store) {
	t.Helper()

	seedEmployee(store, "emp-under", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-under", "emp-under",
		date(2024, time.July, 1), date(2024, time.July, 10), days(8))

	seedEmployee(store, "emp-capped", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-capped", "emp-capped",
		date(2024, time.July, 1), date(2024, time.July, 2), days(2))

	seedEmployee(store, "emp-new", date(2025, time.February, 1))

	seedEmployee(store, "emp-over", date(2018, time.March, 1))
	seedApprovedAnnual(t, store, "req-over", "emp-over",
		date(2024, time.February, 1), date(2024, time.March, 10), days(27))

	store.PutEmployee(leave.Employee{ID: "emp-broken", IsActive: true})
}

func resultFor(t *testing.T, batch *leave.BatchResult, id leave.EmployeeID) leave.EmployeeResult {
	t.Helper()
	for _, er := range batch.Results {
		if er.EmployeeID == id {
			return er
		}
	}
	t.Fatalf("no result for employee %s", id)
	return leave.EmployeeResult{}
}

// =============================================================================
// YEAR-END RUN
// =============================================================================

func TestProcessYear_WritesCappedCarryOver(t *testing.T) {
	// GIVEN: The mixed roster above
	// WHEN: Closing out 2024
	// THEN: Each employee lands in the right bucket and ledger entries exist
	//       only for the two processed ones
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedPopulation(t, store)

	batch, err := engine.YearEnd.ProcessYear(ctx, 2024)
	require.NoError(t, err)

	assert.Equal(t, 2024, batch.TargetYear)
	assert.Equal(t, 2, batch.Processed)
	assert.Equal(t, 2, batch.NoCarryOver)
	assert.Equal(t, 1, batch.Errors)
	assert.Equal(t, 0, batch.AlreadyExists)
	assert.Len(t, batch.Results, 5)

	under := resultFor(t, batch, "emp-under")
	assert.Equal(t, leave.BatchProcessed, under.Status)
	assertDecimalEqual(t, days(20), under.Entitlement)
	assertDecimalEqual(t, days(8), under.Used)
	assertDecimalEqual(t, days(12), under.CarryOver)

	capped := resultFor(t, batch, "emp-capped")
	assert.Equal(t, leave.BatchProcessed, capped.Status)
	assertDecimalEqual(t, days(18), capped.Unused)
	assertDecimalEqual(t, days(15), capped.CarryOver)

	assert.Equal(t, leave.BatchNoCarryOver, resultFor(t, batch, "emp-new").Status)
	assert.Equal(t, leave.BatchNoCarryOver, resultFor(t, batch, "emp-over").Status)

	broken := resultFor(t, batch, "emp-broken")
	assert.Equal(t, leave.BatchError, broken.Status)
	assert.ErrorIs(t, broken.Err, leave.ErrValidation)

	carryType := leave.AdjustmentCarryOver
	entries, err := store.FindLeaveAdjustments(ctx, "emp-under", 2025, &carryType)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assertDecimalEqual(t, days(12), entries[0].Amount)
	assert.Equal(t, 2025, entries[0].Year)
	assert.Equal(t, leave.EmployeeID("system"), entries[0].CreatedBy)
	assert.Equal(t, "year-end carry-over from 2024", entries[0].Reason)
}

func TestProcessYear_FailureDoesNotAbortOthers(t *testing.T) {
	// emp-broken errors out, yet the healthy employees are still processed.
	engine, store := newTestEngine(t)
	seedPopulation(t, store)

	batch, err := engine.YearEnd.ProcessYear(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Errors)
	assert.Equal(t, 2, batch.Processed, "one bad employee must not stop the run")
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestProcessYear_SecondRunWritesNothing(t *testing.T) {
	// GIVEN: A completed run for 2024
	// WHEN: The same run is repeated
	// THEN: Processed employees report already_exists and the ledger holds a
	//       single entry per employee
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedPopulation(t, store)

	_, err := engine.YearEnd.ProcessYear(ctx, 2024)
	require.NoError(t, err)

	second, err := engine.YearEnd.ProcessYear(ctx, 2024)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.AlreadyExists)
	assert.Equal(t, 2, second.NoCarryOver)
	assert.Equal(t, 1, second.Errors)

	carryType := leave.AdjustmentCarryOver
	for _, id := range []leave.EmployeeID{"emp-under", "emp-capped"} {
		entries, err := store.FindLeaveAdjustments(ctx, id, 2025, &carryType)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "employee %s must not be credited twice", id)
	}
}

// =============================================================================
// CONCURRENCY AND EDGE CASES
// =============================================================================

func TestProcessYear_WorkerPoolMatchesSequential(t *testing.T) {
	// The bounded pool is an execution detail: results are identical to a
	// sequential run.
	run := func(workers int) *leave.BatchResult {
		engine, store := newTestEngine(t)
		seedPopulation(t, store)
		engine.YearEnd.Workers = workers

		batch, err := engine.YearEnd.ProcessYear(context.Background(), 2024)
		require.NoError(t, err)
		return batch
	}

	sequential := run(1)
	pooled := run(4)

	assert.Equal(t, sequential.Processed, pooled.Processed)
	assert.Equal(t, sequential.NoCarryOver, pooled.NoCarryOver)
	assert.Equal(t, sequential.Errors, pooled.Errors)
	for _, er := range sequential.Results {
		assert.Equal(t, er.Status, resultFor(t, pooled, er.EmployeeID).Status)
	}
}

func TestProcessYear_EmptyRoster(t *testing.T) {
	engine, _ := newTestEngine(t)

	batch, err := engine.YearEnd.ProcessYear(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
}

func TestProcessYear_InvalidYear(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.YearEnd.ProcessYear(context.Background(), 0)
	assert.ErrorIs(t, err, leave.ErrValidation)
}

func TestProcessYear_SkipsInactiveEmployees(t *testing.T) {
	engine, store := newTestEngine(t)

	store.PutEmployee(leave.Employee{
		ID: "emp-gone", HireDate: date(2018, time.March, 1), IsActive: false,
	})

	batch, err := engine.YearEnd.ProcessYear(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, batch.Results, "inactive employees are outside the batch")
}
