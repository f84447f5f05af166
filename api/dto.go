/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DAY QUANTITIES:
  Day amounts travel as JSON numbers. Internally they are decimals in
  half-day steps, so the float64 conversion is exact.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain records these map from
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID       string `json:"id"`
	HireDate string `json:"hire_date"`
	IsActive bool   `json:"is_active"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id"`
	HireDate string `json:"hire_date"`
	IsActive *bool  `json:"is_active,omitempty"` // nil defaults to active
}

// BalanceDTO is the employee-year balance snapshot.
type BalanceDTO struct {
	EmployeeID       string  `json:"employee_id"`
	Year             int     `json:"year"`
	BaseEntitlement  float64 `json:"base_entitlement"`
	CarryOverLeave   float64 `json:"carry_over_leave"`
	TotalEntitlement float64 `json:"total_entitlement"`
	UsedLeave        float64 `json:"used_leave"`
	PendingLeave     float64 `json:"pending_leave"`
	Adjustments      float64 `json:"adjustments"`
	RemainingLeave   float64 `json:"remaining_leave"`
}

// SubmitRequestDTO is the request body for submitting leave.
type SubmitRequestDTO struct {
	LeaveType         string `json:"leave_type"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Reason            string `json:"reason,omitempty"`
	AllowAdvanceUsage bool   `json:"allow_advance_usage,omitempty"`
}

// EditRequestDTO is the request body for editing a pending request.
type EditRequestDTO struct {
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Reason            string `json:"reason,omitempty"`
	AllowAdvanceUsage bool   `json:"allow_advance_usage,omitempty"`
}

// ApproveRequestDTO identifies the approver.
type ApproveRequestDTO struct {
	ApproverID string `json:"approver_id"`
}

// RejectRequestDTO identifies the approver and the rejection reason.
type RejectRequestDTO struct {
	ApproverID string `json:"approver_id"`
	Reason     string `json:"reason,omitempty"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveType       string  `json:"leave_type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DaysCount       float64 `json:"days_count"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	IsAdvanceUsage  bool    `json:"is_advance_usage"`
	OverdraftDays   float64 `json:"overdraft_days,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ApproverID      string  `json:"approver_id,omitempty"`
	ApprovedAt      string  `json:"approved_at,omitempty"`
	RejectedAt      string  `json:"rejected_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
}

// ConflictCheckDTO is the response of a conflict probe.
type ConflictCheckDTO struct {
	HasConflicts  bool     `json:"has_conflicts"`
	ConflictCount int      `json:"conflict_count"`
	Conflicting   []string `json:"conflicting,omitempty"`
}

// AdjustmentRequestDTO is the request to record a manual adjustment.
type AdjustmentRequestDTO struct {
	Year    int     `json:"year"`
	Type    string  `json:"type"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason,omitempty"`
	ActorID string  `json:"actor_id"`
}

// AdjustmentDTO represents a ledger entry in API responses.
type AdjustmentDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Year            int     `json:"year"`
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	PreviousBalance float64 `json:"previous_balance"`
	NewBalance      float64 `json:"new_balance"`
	Reason          string  `json:"reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	CreatedBy       string  `json:"created_by"`
}

// RecordedAdjustmentDTO wraps a written entry with the overdraft signal.
type RecordedAdjustmentDTO struct {
	Entry               AdjustmentDTO `json:"entry"`
	ResultedInOverdraft bool          `json:"resulted_in_overdraft"`
}

// CancelUsageRequestDTO is the request to undo an approved request's usage.
type CancelUsageRequestDTO struct {
	Reason  string `json:"reason,omitempty"`
	ActorID string `json:"actor_id"`
}

// YearEndRequestDTO triggers the year-end carry-over batch.
type YearEndRequestDTO struct {
	TargetYear int `json:"target_year"`
}

// YearEndResultDTO summarizes a batch run.
type YearEndResultDTO struct {
	TargetYear    int                  `json:"target_year"`
	Processed     int                  `json:"processed"`
	AlreadyExists int                  `json:"already_exists"`
	NoCarryOver   int                  `json:"no_carry_over"`
	Errors        int                  `json:"errors"`
	Results       []YearEndEmployeeDTO `json:"results"`
}

// YearEndEmployeeDTO is one employee's year-end outcome.
type YearEndEmployeeDTO struct {
	EmployeeID  string  `json:"employee_id"`
	Status      string  `json:"status"`
	Entitlement float64 `json:"entitlement"`
	Used        float64 `json:"used"`
	Unused      float64 `json:"unused"`
	CarryOver   float64 `json:"carry_over"`
	Error       string  `json:"error,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(emp leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       string(emp.ID),
		HireDate: emp.HireDate.String(),
		IsActive: emp.IsActive,
	}
}

func toBalanceDTO(snap leave.BalanceSnapshot) BalanceDTO {
	return BalanceDTO{
		EmployeeID:       string(snap.EmployeeID),
		Year:             snap.Year,
		BaseEntitlement:  f64(snap.BaseEntitlement),
		CarryOverLeave:   f64(snap.CarryOverLeave),
		TotalEntitlement: f64(snap.TotalEntitlement),
		UsedLeave:        f64(snap.UsedLeave),
		PendingLeave:     f64(snap.PendingLeave),
		Adjustments:      f64(snap.Adjustments),
		RemainingLeave:   f64(snap.RemainingLeave),
	}
}

func toRequestDTO(req leave.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:              string(req.ID),
		EmployeeID:      string(req.EmployeeID),
		LeaveType:       string(req.LeaveType),
		StartDate:       req.StartDate.String(),
		EndDate:         req.EndDate.String(),
		DaysCount:       f64(req.DaysCount),
		Status:          string(req.Status),
		Reason:          req.Reason,
		IsAdvanceUsage:  req.IsAdvanceUsage,
		OverdraftDays:   f64(req.OverdraftDays),
		CreatedAt:       req.CreatedAt.UTC().Format(time.RFC3339),
		RejectionReason: req.RejectionReason,
	}
	if req.ApproverID != nil {
		dto.ApproverID = string(*req.ApproverID)
	}
	if req.ApprovedAt != nil {
		dto.ApprovedAt = req.ApprovedAt.UTC().Format(time.RFC3339)
	}
	if req.RejectedAt != nil {
		dto.RejectedAt = req.RejectedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toRequestDTOs(reqs []leave.LeaveRequest) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	return dtos
}

func toAdjustmentDTO(entry leave.LeaveAdjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:              string(entry.ID),
		EmployeeID:      string(entry.EmployeeID),
		Year:            entry.Year,
		Type:            string(entry.Type),
		Amount:          f64(entry.Amount),
		PreviousBalance: f64(entry.PreviousBalance),
		NewBalance:      f64(entry.NewBalance),
		Reason:          entry.Reason,
		CreatedAt:       entry.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:       string(entry.CreatedBy),
	}
}

func toAdjustmentDTOs(entries []leave.LeaveAdjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toAdjustmentDTO(entry)
	}
	return dtos
}

func toYearEndResultDTO(result *leave.BatchResult) YearEndResultDTO {
	dto := YearEndResultDTO{
		TargetYear:    result.TargetYear,
		Processed:     result.Processed,
		AlreadyExists: result.AlreadyExists,
		NoCarryOver:   result.NoCarryOver,
		Errors:        result.Errors,
		Results:       make([]YearEndEmployeeDTO, len(result.Results)),
	}
	for i, er := range result.Results {
		item := YearEndEmployeeDTO{
			EmployeeID:  string(er.EmployeeID),
			Status:      string(er.Status),
			Entitlement: f64(er.Entitlement),
			Used:        f64(er.Used),
			Unused:      f64(er.Unused),
			CarryOver:   f64(er.CarryOver),
		}
		if er.Err != nil {
			item.Error = er.Err.Error()
		}
		dto.Results[i] = item
	}
	return dto
}
