/*
engine.go - Engine assembly

PURPOSE:
  Bundles the calculators and services over one store and one per-employee
  lock table, so callers (HTTP handlers, batch CLIs, tests) wire a single
  value instead of six.
*/
package leave

import (
	"context"

	"go.uber.org/zap"
)

// Engine is the assembled leave engine.
type Engine struct {
	Store       Store
	Entitlement EntitlementCalculator
	CarryOver   *CarryOverCalculator
	Balance     *BalanceAggregator
	Conflicts   *ConflictDetector
	Requests    *RequestService
	Ledger      *AdjustmentLedger
	YearEnd     *YearEndCarryOverBatch
}

// Options tune engine construction.
type Options struct {
	// BatchWorkers bounds year-end batch concurrency. Zero means sequential.
	BatchWorkers int

	// Now overrides the engine's clock for balance computation. Nil means
	// the real clock. Tests pin this.
	Now func() Date
}

// NewEngine assembles the engine over a store.
func NewEngine(store Store, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := newEmployeeLocks()

	entitlement := EntitlementCalculator{}
	carryOver := &CarryOverCalculator{Store: store, Entitlement: entitlement}
	balance := &BalanceAggregator{Store: store, Entitlement: entitlement, CarryOver: carryOver, Now: opts.Now}
	conflicts := &ConflictDetector{Store: store}

	return &Engine{
		Store:       store,
		Entitlement: entitlement,
		CarryOver:   carryOver,
		Balance:     balance,
		Conflicts:   conflicts,
		Requests:    NewRequestService(store, conflicts, balance, locks, logger),
		Ledger:      NewAdjustmentLedger(store, balance, locks, logger),
		YearEnd:     NewYearEndCarryOverBatch(store, carryOver, balance, locks, opts.BatchWorkers, logger),
	}
}

// Snapshot is a convenience passthrough to the balance aggregator.
func (e *Engine) Snapshot(ctx context.Context, employeeID EmployeeID, year int) (BalanceSnapshot, error) {
	return e.Balance.Snapshot(ctx, employeeID, year)
}
