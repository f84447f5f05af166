/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List active employees
    POST   /api/employees                       Register employee
    GET    /api/employees/{id}                  Get employee details
    GET    /api/employees/{id}/balance          Balance snapshot (?year=)
    GET    /api/employees/{id}/requests         List requests (?type=&status=)
    POST   /api/employees/{id}/requests         Submit leave request
    GET    /api/employees/{id}/conflicts        Conflict probe (?start=&end=)
    GET    /api/employees/{id}/adjustments      Ledger entries (?year=&type=)
    POST   /api/employees/{id}/adjustments      Record manual adjustment

  Requests:
    PUT    /api/requests/{id}                   Edit pending request
    POST   /api/requests/{id}/approve           Approve
    POST   /api/requests/{id}/reject            Reject
    POST   /api/requests/{id}/cancel            Cancel (pending only)
    POST   /api/requests/{id}/cancel-usage      Undo approved usage via ledger

  Admin:
    POST   /api/admin/yearend                   Run year-end carry-over batch

ERROR HANDLING:
  Engine errors are mapped to HTTP status by sentinel:
  - 400: validation errors, invalid ranges
  - 404: unknown employee/request
  - 409: calendar conflicts, invalid state transitions
  - 422: insufficient balance
  - 500: everything else

SECURITY NOTE:
  No authentication middleware. Identity (approver, actor) travels in
  request bodies; an auth layer in front of this API is expected.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeWriter is the write side of employee records. The engine itself
// only reads employees; registration goes through here.
type EmployeeWriter interface {
	SaveEmployee(ctx context.Context, emp leave.Employee) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *leave.Engine
	Directory EmployeeWriter
	Logger    *zap.Logger
}

// NewHandler creates a handler over an assembled engine.
func NewHandler(engine *leave.Engine, directory EmployeeWriter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Engine: engine, Directory: directory, Logger: logger}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all active employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Engine.Store.ListActiveEmployees(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee record.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		writeError(w, http.StatusNotImplemented, "employee registration is not enabled", nil)
		return
	}

	var body CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	hireDate, err := leave.ParseDate(body.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	emp := leave.Employee{
		ID:       leave.EmployeeID(body.ID),
		HireDate: hireDate,
		IsActive: body.IsActive == nil || *body.IsActive,
	}
	if err := h.Directory.SaveEmployee(r.Context(), emp); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Engine.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// GetBalance returns the employee's balance snapshot for a year.
// GET /api/employees/{id}/balance?year=2025
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	year, err := yearParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return
	}

	snap, err := h.Engine.Snapshot(r.Context(), id, year)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(snap))
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ListRequests returns the employee's requests.
// GET /api/employees/{id}/requests?type=annual&status=pending&status=approved
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var filter leave.RequestFilter
	if t := r.URL.Query().Get("type"); t != "" {
		lt := leave.LeaveType(t)
		if !leave.ValidLeaveType(lt) {
			writeError(w, http.StatusBadRequest, "unknown leave type", nil)
			return
		}
		filter.LeaveType = &lt
	}
	for _, st := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, leave.RequestStatus(st))
	}

	reqs, err := h.Engine.Store.FindLeaveRequests(r.Context(), id, filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// SubmitRequest submits a new leave request for the employee.
// POST /api/employees/{id}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var body SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	start, end, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)", err)
		return
	}

	req, err := h.Engine.Requests.Submit(r.Context(), leave.SubmitInput{
		EmployeeID:        id,
		LeaveType:         leave.LeaveType(body.LeaveType),
		StartDate:         start,
		EndDate:           end,
		Reason:            body.Reason,
		AllowAdvanceUsage: body.AllowAdvanceUsage,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*req))
}

// EditRequest changes a pending request's dates and reason.
// PUT /api/requests/{id}
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	start, end, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)", err)
		return
	}

	req, err := h.Engine.Requests.Edit(r.Context(), id, leave.EditInput{
		StartDate:         start,
		EndDate:           end,
		Reason:            body.Reason,
		AllowAdvanceUsage: body.AllowAdvanceUsage,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// ApproveRequest approves a pending request.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body ApproveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	req, err := h.Engine.Requests.Approve(r.Context(), id, leave.EmployeeID(body.ApproverID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body RejectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	req, err := h.Engine.Requests.Reject(r.Context(), id, leave.EmployeeID(body.ApproverID), body.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CancelRequest withdraws a pending request.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Engine.Requests.Cancel(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CancelUsage records a cancel_usage adjustment undoing an approved
// request's consumed days.
// POST /api/requests/{id}/cancel-usage
func (h *Handler) CancelUsage(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body CancelUsageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}

	rec, err := h.Engine.Ledger.CancelApprovedUsage(r.Context(), id, body.Reason, leave.EmployeeID(body.ActorID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedAdjustmentDTO{
		Entry:               toAdjustmentDTO(rec.Entry),
		ResultedInOverdraft: rec.ResultedInOverdraft,
	})
}

// =============================================================================
// CONFLICT PROBE
// =============================================================================

// CheckConflicts probes a date range against the employee's calendar.
// GET /api/employees/{id}/conflicts?start=2025-03-03&end=2025-03-07&exclude=req-1
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	start, end, err := parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)", err)
		return
	}
	exclude := leave.RequestID(r.URL.Query().Get("exclude"))

	result, err := h.Engine.Conflicts.HasConflict(r.Context(), id, start, end, exclude)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dto := ConflictCheckDTO{
		HasConflicts:  result.HasConflicts,
		ConflictCount: result.ConflictCount,
	}
	for _, rid := range result.Conflicting {
		dto.Conflicting = append(dto.Conflicting, string(rid))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// ADJUSTMENT ENDPOINTS
// =============================================================================

// ListAdjustments returns the employee's ledger entries for a year.
// GET /api/employees/{id}/adjustments?year=2025&type=carry_over
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	year, err := yearParam(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return
	}

	var adjType *leave.AdjustmentType
	if t := r.URL.Query().Get("type"); t != "" {
		at := leave.AdjustmentType(t)
		if !leave.ValidAdjustmentType(at) {
			writeError(w, http.StatusBadRequest, "unknown adjustment type", nil)
			return
		}
		adjType = &at
	}

	entries, err := h.Engine.Store.FindLeaveAdjustments(r.Context(), id, year, adjType)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdjustmentDTOs(entries))
}

// RecordAdjustment appends a manual ledger entry.
// POST /api/employees/{id}/adjustments
func (h *Handler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var body AdjustmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rec, err := h.Engine.Ledger.RecordAdjustment(r.Context(), leave.AdjustmentInput{
		EmployeeID: id,
		Year:       body.Year,
		Type:       leave.AdjustmentType(body.Type),
		Amount:     decimal.NewFromFloat(body.Amount),
		Reason:     body.Reason,
		ActorID:    leave.EmployeeID(body.ActorID),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedAdjustmentDTO{
		Entry:               toAdjustmentDTO(rec.Entry),
		ResultedInOverdraft: rec.ResultedInOverdraft,
	})
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// RunYearEnd triggers the year-end carry-over batch.
// POST /api/admin/yearend
func (h *Handler) RunYearEnd(w http.ResponseWriter, r *http.Request) {
	var body YearEndRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.Engine.YearEnd.ProcessYear(r.Context(), body.TargetYear)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toYearEndResultDTO(result))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine sentinels onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leave.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, leave.ErrValidation), errors.Is(err, leave.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, leave.ErrConflict), errors.Is(err, leave.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, leave.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func parseRange(startStr, endStr string) (leave.Date, leave.Date, error) {
	start, err := leave.ParseDate(startStr)
	if err != nil {
		return leave.Date{}, leave.Date{}, err
	}
	end, err := leave.ParseDate(endStr)
	if err != nil {
		return leave.Date{}, leave.Date{}, err
	}
	return start, end, nil
}

func yearParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return leave.Today().Year(), nil
	}
	return strconv.Atoi(raw)
}

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
