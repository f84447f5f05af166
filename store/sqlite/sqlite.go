/*
Package sqlite provides a SQLite-backed leave.Store.

PURPOSE:
  Persists employees, leave requests, and the adjustment ledger in SQLite.
  In production the same patterns apply to PostgreSQL, only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  The leave_adjustments table is write-once:
  - No UPDATE statements on leave_adjustments
  - No DELETE statements on leave_adjustments
  - Corrections via compensating entries only

KEY TABLES:
  employees:         Entity records (read path for the engine)
  leave_requests:    Request rows; status transitions update in place
  leave_adjustments: Immutable balance-adjustment ledger

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := leave.NewEngine(store, logger, leave.Options{})

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (read path; the engine never creates these)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		hire_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_employees_active
		ON employees(is_active);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_count TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		is_advance_usage BOOLEAN NOT NULL DEFAULT FALSE,
		overdraft_days TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		approver_id TEXT,
		approved_at TEXT,
		rejected_at TEXT,
		rejection_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	-- Composite index for the conflict/usage hot path
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	-- Adjustment ledger (append-only)
	CREATE TABLE IF NOT EXISTS leave_adjustments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		adjustment_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		previous_balance TEXT NOT NULL,
		new_balance TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_employee_year
		ON leave_adjustments(employee_id, year);
	CREATE INDEX IF NOT EXISTS idx_adjustments_type
		ON leave_adjustments(adjustment_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee upserts an employee record. Seed/admin path; the engine only
// reads employees.
func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, hire_date, is_active)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hire_date = excluded.hire_date,
			is_active = excluded.is_active
	`

	_, err := s.db.ExecContext(ctx, query, emp.ID, emp.HireDate.String(), emp.IsActive)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp leave.Employee
	var hireDate string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, hire_date, is_active FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &hireDate, &emp.IsActive)

	if err == sql.ErrNoRows {
		return leave.Employee{}, &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	if err != nil {
		return leave.Employee{}, fmt.Errorf("failed to query employee: %w", err)
	}

	emp.HireDate, err = leave.ParseDate(hireDate)
	if err != nil {
		return leave.Employee{}, fmt.Errorf("failed to parse hire date: %w", err)
	}
	return emp, nil
}

// ListActiveEmployees returns all active employees ordered by ID.
func (s *Store) ListActiveEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, hire_date, is_active FROM employees WHERE is_active = TRUE ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var emp leave.Employee
		var hireDate string
		if err := rows.Scan(&emp.ID, &hireDate, &emp.IsActive); err != nil {
			return nil, err
		}
		// A blank hire date stays zero-valued; the year-end batch reports it
		// per employee instead of the whole listing failing.
		if hireDate != "" {
			if d, err := leave.ParseDate(hireDate); err == nil {
				emp.HireDate = d
			}
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_type, start_date, end_date, days_count,
	status, reason, is_advance_usage, overdraft_days, created_at,
	approver_id, approved_at, rejected_at, rejection_reason`

// GetLeaveRequest retrieves a request by ID.
func (s *Store) GetLeaveRequest(ctx context.Context, id leave.RequestID) (leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id = ?", id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return leave.LeaveRequest{}, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return req, nil
}

// FindLeaveRequests returns the employee's requests matching the filter,
// ordered by start date. Status and type narrowing happen in SQL; the date
// overlap check is shared with the filter to keep one definition of overlap.
func (s *Store) FindLeaveRequests(ctx context.Context, employeeID leave.EmployeeID, filter leave.RequestFilter) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + requestColumns + " FROM leave_requests WHERE employee_id = ?"
	args := []any{employeeID}

	if filter.LeaveType != nil {
		query += " AND leave_type = ?"
		args = append(args, *filter.LeaveType)
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(",?", len(filter.Statuses)-1) + ")"
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	query += " ORDER BY start_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var result []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(req) {
			result = append(result, req)
		}
	}
	return result, rows.Err()
}

// SaveLeaveRequest upserts a request row.
func (s *Store) SaveLeaveRequest(ctx context.Context, req leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_requests
		(id, employee_id, leave_type, start_date, end_date, days_count, status,
		 reason, is_advance_usage, overdraft_days, created_at,
		 approver_id, approved_at, rejected_at, rejection_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days_count = excluded.days_count,
			status = excluded.status,
			reason = excluded.reason,
			is_advance_usage = excluded.is_advance_usage,
			overdraft_days = excluded.overdraft_days,
			approver_id = excluded.approver_id,
			approved_at = excluded.approved_at,
			rejected_at = excluded.rejected_at,
			rejection_reason = excluded.rejection_reason
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		req.LeaveType,
		req.StartDate.String(),
		req.EndDate.String(),
		req.DaysCount.String(),
		req.Status,
		req.Reason,
		req.IsAdvanceUsage,
		req.OverdraftDays.String(),
		req.CreatedAt.UTC().Format(time.RFC3339),
		nullEmployeeID(req.ApproverID),
		nullTime(req.ApprovedAt),
		nullTime(req.RejectedAt),
		req.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// UpdateLeaveRequestStatus transitions a request's status and stamps the
// transition metadata in one statement.
func (s *Store) UpdateLeaveRequestStatus(ctx context.Context, id leave.RequestID, status leave.RequestStatus, meta leave.StatusMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := meta.At.UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	switch status {
	case leave.StatusApproved:
		res, err = s.db.ExecContext(ctx,
			"UPDATE leave_requests SET status = ?, approver_id = ?, approved_at = ? WHERE id = ?",
			status, nullEmployeeID(meta.ApproverID), at, id)
	case leave.StatusRejected:
		res, err = s.db.ExecContext(ctx,
			"UPDATE leave_requests SET status = ?, approver_id = ?, rejected_at = ?, rejection_reason = ? WHERE id = ?",
			status, nullEmployeeID(meta.ApproverID), at, meta.RejectionReason, id)
	default:
		res, err = s.db.ExecContext(ctx,
			"UPDATE leave_requests SET status = ? WHERE id = ?", status, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	return nil
}

func scanRequest(row interface{ Scan(dest ...any) error }) (leave.LeaveRequest, error) {
	var (
		req             leave.LeaveRequest
		startDate       string
		endDate         string
		daysCount       string
		reason          sql.NullString
		overdraftDays   string
		createdAt       string
		approverID      sql.NullString
		approvedAt      sql.NullString
		rejectedAt      sql.NullString
		rejectionReason sql.NullString
	)

	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.LeaveType, &startDate, &endDate, &daysCount,
		&req.Status, &reason, &req.IsAdvanceUsage, &overdraftDays, &createdAt,
		&approverID, &approvedAt, &rejectedAt, &rejectionReason,
	)
	if err != nil {
		return req, err
	}

	if req.StartDate, err = leave.ParseDate(startDate); err != nil {
		return req, fmt.Errorf("failed to parse start date: %w", err)
	}
	if req.EndDate, err = leave.ParseDate(endDate); err != nil {
		return req, fmt.Errorf("failed to parse end date: %w", err)
	}
	if req.DaysCount, err = decimal.NewFromString(daysCount); err != nil {
		return req, fmt.Errorf("failed to parse days count: %w", err)
	}
	if req.OverdraftDays, err = decimal.NewFromString(overdraftDays); err != nil {
		return req, fmt.Errorf("failed to parse overdraft days: %w", err)
	}

	req.Reason = reason.String
	req.RejectionReason = rejectionReason.String
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if approverID.Valid {
		aid := leave.EmployeeID(approverID.String)
		req.ApproverID = &aid
	}
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		req.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t, _ := time.Parse(time.RFC3339, rejectedAt.String)
		req.RejectedAt = &t
	}

	return req, nil
}

// =============================================================================
// ADJUSTMENT LEDGER (append-only)
// =============================================================================

// FindLeaveAdjustments returns ledger entries for an employee-year, oldest
// first, optionally narrowed to one adjustment type.
func (s *Store) FindLeaveAdjustments(ctx context.Context, employeeID leave.EmployeeID, year int, adjType *leave.AdjustmentType) ([]leave.LeaveAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, year, adjustment_type, amount,
		       previous_balance, new_balance, reason, created_at, created_by
		FROM leave_adjustments
		WHERE employee_id = ? AND year = ?
	`
	args := []any{employeeID, year}

	if adjType != nil {
		query += " AND adjustment_type = ?"
		args = append(args, *adjType)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var entries []leave.LeaveAdjustment
	for rows.Next() {
		var (
			entry     leave.LeaveAdjustment
			amount    string
			previous  string
			next      string
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&entry.ID, &entry.EmployeeID, &entry.Year, &entry.Type, &amount,
			&previous, &next, &reason, &createdAt, &entry.CreatedBy,
		); err != nil {
			return nil, err
		}

		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse adjustment amount: %w", err)
		}
		if entry.PreviousBalance, err = decimal.NewFromString(previous); err != nil {
			return nil, fmt.Errorf("failed to parse previous balance: %w", err)
		}
		if entry.NewBalance, err = decimal.NewFromString(next); err != nil {
			return nil, fmt.Errorf("failed to parse new balance: %w", err)
		}
		entry.Reason = reason.String
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AppendLeaveAdjustment inserts a ledger entry. The table is append-only:
// this is the only statement that touches leave_adjustments.
func (s *Store) AppendLeaveAdjustment(ctx context.Context, entry leave.LeaveAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_adjustments
		(id, employee_id, year, adjustment_type, amount,
		 previous_balance, new_balance, reason, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.EmployeeID,
		entry.Year,
		entry.Type,
		entry.Amount.String(),
		entry.PreviousBalance.String(),
		entry.NewBalance.String(),
		entry.Reason,
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append adjustment: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullEmployeeID(id *leave.EmployeeID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

var _ leave.Store = (*Store)(nil)
