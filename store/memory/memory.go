// Package memory provides an in-memory leave.Store implementation for
// testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps all records in maps guarded by a single RWMutex. The
// adjustment ledger is append-only: nothing here can modify or remove an
// entry once written.
type Store struct {
	mu          sync.RWMutex
	employees   map[leave.EmployeeID]leave.Employee
	requests    map[leave.RequestID]leave.LeaveRequest
	adjustments []leave.LeaveAdjustment
}

// New creates an empty store.
func New() *Store {
	return &Store{
		employees: make(map[leave.EmployeeID]leave.Employee),
		requests:  make(map[leave.RequestID]leave.LeaveRequest),
	}
}

// PutEmployee seeds an employee record. Test/dev helper, not part of the
// engine's Store contract.
func (s *Store) PutEmployee(emp leave.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
}

// SaveEmployee matches the API layer's employee write contract.
func (s *Store) SaveEmployee(_ context.Context, emp leave.Employee) error {
	s.PutEmployee(emp)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(_ context.Context, id leave.EmployeeID) (leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return leave.Employee{}, &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return emp, nil
}

func (s *Store) ListActiveEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []leave.Employee
	for _, emp := range s.employees {
		if emp.IsActive {
			active = append(active, emp)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) GetLeaveRequest(_ context.Context, id leave.RequestID) (leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return leave.LeaveRequest{}, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	return req, nil
}

func (s *Store) FindLeaveRequests(_ context.Context, employeeID leave.EmployeeID, filter leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.LeaveRequest
	for _, req := range s.requests {
		if req.EmployeeID != employeeID {
			continue
		}
		if filter.Matches(req) {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

func (s *Store) SaveLeaveRequest(_ context.Context, req leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *Store) UpdateLeaveRequestStatus(_ context.Context, id leave.RequestID, status leave.RequestStatus, meta leave.StatusMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return &leave.NotFoundError{Kind: "request", ID: string(id)}
	}

	req.Status = status
	switch status {
	case leave.StatusApproved:
		req.ApproverID = meta.ApproverID
		at := meta.At
		req.ApprovedAt = &at
	case leave.StatusRejected:
		req.ApproverID = meta.ApproverID
		at := meta.At
		req.RejectedAt = &at
		req.RejectionReason = meta.RejectionReason
	}
	s.requests[id] = req
	return nil
}

// =============================================================================
// ADJUSTMENT LEDGER (append-only)
// =============================================================================

func (s *Store) FindLeaveAdjustments(_ context.Context, employeeID leave.EmployeeID, year int, adjType *leave.AdjustmentType) ([]leave.LeaveAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.LeaveAdjustment
	for _, entry := range s.adjustments {
		if entry.EmployeeID != employeeID || entry.Year != year {
			continue
		}
		if adjType != nil && entry.Type != *adjType {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) AppendLeaveAdjustment(_ context.Context, entry leave.LeaveAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments = append(s.adjustments, entry)
	return nil
}

var _ leave.Store = (*Store)(nil)
