/*
batch.go - Year-end carry-over batch

PURPOSE:
  Once per year end, computes every active employee's unused entitlement for
  the closing year and persists it as a carry_over ledger entry for the next
  year. The arithmetic is exactly the carry-over calculator's automatic
  branch; this batch is the one place that WRITES what the calculator only
  computes.

IDEMPOTENCY:
  Before writing, the batch checks whether a carry_over entry already exists
  for (employee, targetYear+1). Re-running the batch reports already_exists
  for those employees and writes nothing twice.

PARTIAL FAILURE:
  One employee's failure (malformed hire date, store error) is recorded in
  that employee's result and does not abort the run. This is a
  partial-failure-tolerant batch job, not a transaction.

CONCURRENCY:
  Employees are independent, so they are processed by a bounded worker pool.
  Each employee's write still runs inside that employee's serialization
  lock. No ordering exists between employees.
*/
package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// BATCH RESULT
// =============================================================================

// BatchStatus is the per-employee outcome of a batch run.
type BatchStatus string

const (
	BatchProcessed     BatchStatus = "processed"
	BatchAlreadyExists BatchStatus = "already_exists"
	BatchNoCarryOver   BatchStatus = "no_carry_over"
	BatchError         BatchStatus = "error"
)

// EmployeeResult reports one employee's year-end figures and outcome.
type EmployeeResult struct {
	EmployeeID  EmployeeID
	Status      BatchStatus
	Entitlement decimal.Decimal
	Used        decimal.Decimal
	Unused      decimal.Decimal
	CarryOver   decimal.Decimal
	Err         error
}

// BatchResult summarizes a full run.
type BatchResult struct {
	TargetYear int
	Results    []EmployeeResult

	Processed     int
	AlreadyExists int
	NoCarryOver   int
	Errors        int
}

func (r *BatchResult) tally(er EmployeeResult) {
	r.Results = append(r.Results, er)
	switch er.Status {
	case BatchProcessed:
		r.Processed++
	case BatchAlreadyExists:
		r.AlreadyExists++
	case BatchNoCarryOver:
		r.NoCarryOver++
	case BatchError:
		r.Errors++
	}
}

// =============================================================================
// YEAR-END CARRY-OVER BATCH
// =============================================================================

// YearEndCarryOverBatch orchestrates carry-over persistence over the active
// employee population.
type YearEndCarryOverBatch struct {
	store     Store
	carryOver *CarryOverCalculator
	balance   *BalanceAggregator
	locks     *employeeLocks
	logger    *zap.Logger

	// Workers bounds the batch's concurrency. Zero or negative means
	// sequential processing.
	Workers int

	now   func() time.Time
	newID func() AdjustmentID
}

// NewYearEndCarryOverBatch wires a batch over the store.
func NewYearEndCarryOverBatch(store Store, carryOver *CarryOverCalculator, balance *BalanceAggregator, locks *employeeLocks, workers int, logger *zap.Logger) *YearEndCarryOverBatch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YearEndCarryOverBatch{
		store:     store,
		carryOver: carryOver,
		balance:   balance,
		locks:     locks,
		logger:    logger,
		Workers:   workers,
		now:       time.Now,
		newID:     func() AdjustmentID { return AdjustmentID(uuid.NewString()) },
	}
}

// ProcessYear runs year-end carry-over for targetYear, writing carry_over
// ledger entries for targetYear+1. Safe to re-run.
func (b *YearEndCarryOverBatch) ProcessYear(ctx context.Context, targetYear int) (*BatchResult, error) {
	if targetYear <= 0 {
		return nil, &ValidationError{Field: "targetYear", Message: "must be a calendar year"}
	}

	employees, err := b.store.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	result := &BatchResult{TargetYear: targetYear}

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(employees) {
		workers = len(employees)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan Employee)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for emp := range jobs {
				er := b.processEmployee(ctx, emp, targetYear)
				mu.Lock()
				result.tally(er)
				mu.Unlock()
			}
		}()
	}
	for _, emp := range employees {
		jobs <- emp
	}
	close(jobs)
	wg.Wait()

	b.logger.Info("year-end carry-over batch complete",
		zap.Int("target_year", targetYear),
		zap.Int("employees", len(employees)),
		zap.Int("processed", result.Processed),
		zap.Int("already_exists", result.AlreadyExists),
		zap.Int("no_carry_over", result.NoCarryOver),
		zap.Int("errors", result.Errors))
	return result, nil
}

// processEmployee computes and, when warranted, persists one employee's
// carry-over. Errors are captured in the result, never propagated.
func (b *YearEndCarryOverBatch) processEmployee(ctx context.Context, emp Employee, targetYear int) EmployeeResult {
	er := EmployeeResult{EmployeeID: emp.ID}

	if emp.HireDate.IsZero() {
		er.Status = BatchError
		er.Err = &ValidationError{Field: "hireDate", Message: "missing for employee " + string(emp.ID)}
		return er
	}
	if emp.HireDate.Year() > targetYear {
		// Not yet employed in the closing year: nothing to carry.
		er.Status = BatchNoCarryOver
		return er
	}

	entitlement := b.carryOver.Entitlement.BaseEntitlement(emp.HireDate, EndOfYear(targetYear))
	used, err := b.carryOver.approvedAnnualUsage(ctx, emp.ID, targetYear)
	if err != nil {
		er.Status = BatchError
		er.Err = err
		return er
	}

	unused := entitlement.Sub(used)
	if unused.IsNegative() {
		unused = decimal.Zero
	}
	capped := unused
	if capped.GreaterThan(automaticCarryOverCap) {
		capped = automaticCarryOverCap
	}

	er.Entitlement = entitlement
	er.Used = used
	er.Unused = unused
	er.CarryOver = capped

	if capped.IsZero() {
		er.Status = BatchNoCarryOver
		return er
	}

	err = b.locks.withLock(emp.ID, func() error {
		carryType := AdjustmentCarryOver
		existing, err := b.store.FindLeaveAdjustments(ctx, emp.ID, targetYear+1, &carryType)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			er.Status = BatchAlreadyExists
			return nil
		}

		// Audit snapshots, like any other ledger entry: the next year's
		// remaining balance before and after this credit lands.
		snap, err := b.balance.Snapshot(ctx, emp.ID, targetYear+1)
		if err != nil {
			return err
		}

		entry := LeaveAdjustment{
			ID:              b.newID(),
			EmployeeID:      emp.ID,
			Year:            targetYear + 1,
			Type:            AdjustmentCarryOver,
			Amount:          capped,
			PreviousBalance: snap.RemainingLeave,
			NewBalance:      snap.RemainingLeave.Add(capped),
			Reason:          fmt.Sprintf("year-end carry-over from %d", targetYear),
			CreatedAt:       b.now(),
			CreatedBy:       "system",
		}
		if err := b.store.AppendLeaveAdjustment(ctx, entry); err != nil {
			return err
		}
		er.Status = BatchProcessed
		return nil
	})
	if err != nil {
		er.Status = BatchError
		er.Err = err
	}
	return er
}
