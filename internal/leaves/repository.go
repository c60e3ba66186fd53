package leaves

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const requestColumns = `id, employee_id, leave_type, start_date, end_date, days, reason, status, applied_via, calendar_event_id, created_at, updated_at`

// CreateRequest inserts a leave request and, when reserveBalance is set,
// reserves the requested days against the employee's balance in the same
// transaction, so a failed insert never leaves days reserved. Returns false
// when the balance cannot cover the request.
func (r *Repository) CreateRequest(ctx context.Context, req *LeaveRequest, reserveBalance bool) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if reserveBalance {
		// The WHERE clause keeps the reservation from overdrawing under
		// concurrent applications; zero rows affected means insufficient
		// balance.
		result, err := tx.ExecContext(ctx, `
			UPDATE leave_balances
			SET used_days = used_days + $3
			WHERE employee_id = $1 AND leave_type = $2
			  AND used_days + $3 <= total_days
		`, req.EmployeeID, req.LeaveType, req.Days)
		if err != nil {
			return false, fmt.Errorf("failed to reserve leave days: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		if affected == 0 {
			return false, nil
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, days, reason, status, applied_via)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		req.ID, req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate,
		req.Days, req.Reason, req.Status, req.AppliedVia)
	if err != nil {
		return false, fmt.Errorf("failed to create leave request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit leave request: %w", err)
	}
	return true, nil
}

func (r *Repository) GetBalances(ctx context.Context, employeeID int64) ([]Balance, error) {
	query := `
		SELECT employee_id, leave_type, total_days, used_days
		FROM leave_balances
		WHERE employee_id = $1
		ORDER BY leave_type
	`

	var balances []Balance
	err := r.db.SelectContext(ctx, &balances, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave balances: %w", err)
	}
	return balances, nil
}

func (r *Repository) GetHistory(ctx context.Context, employeeID int64, status string) ([]LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE employee_id = $1`
	params := []interface{}{employeeID}

	if status != "" {
		query += ` AND status = $2`
		params = append(params, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 50`

	var history []LeaveRequest
	err := r.db.SelectContext(ctx, &history, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave history: %w", err)
	}
	return history, nil
}

func (r *Repository) HasOverlappingRequest(ctx context.Context, employeeID int64, startDate, endDate time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM leave_requests
		WHERE employee_id = $1
		  AND status IN ('Pending', 'Approved')
		  AND start_date <= $3
		  AND end_date >= $2
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, employeeID, startDate, endDate)
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping requests: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) SetCalendarEventID(ctx context.Context, requestID, eventID string) error {
	query := `UPDATE leave_requests SET calendar_event_id = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, requestID, eventID)
	if err != nil {
		return fmt.Errorf("failed to store calendar event id: %w", err)
	}
	return nil
}
