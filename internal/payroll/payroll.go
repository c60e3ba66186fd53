package payroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrPayslipNotFound = errors.New("payslip not found")
	ErrInvalidMonth    = errors.New("invalid month, expected YYYY-MM")
)

type Service struct {
	db *sqlx.DB
}

type Payslip struct {
	ID          int64     `db:"id" json:"id"`
	EmployeeID  int64     `db:"employee_id" json:"employee_id"`
	Month       string    `db:"month" json:"month"`
	BasicPay    float64   `db:"basic_pay" json:"basic_pay"`
	Allowances  float64   `db:"allowances" json:"allowances"`
	Deductions  float64   `db:"deductions" json:"deductions"`
	NetPay      float64   `db:"net_pay" json:"net_pay"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Payslip returns the payslip for the given month (YYYY-MM); an empty month
// means the most recent one.
func (s *Service) Payslip(ctx context.Context, employeeID int64, month string) (*Payslip, error) {
	query := `
		SELECT id, employee_id, month, basic_pay, allowances, deductions, net_pay, generated_at
		FROM payslips
		WHERE employee_id = $1
	`
	params := []interface{}{employeeID}

	if month != "" {
		if !monthPattern.MatchString(month) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
		}
		query += ` AND month = $2`
		params = append(params, month)
	}
	query += ` ORDER BY month DESC LIMIT 1`

	var payslip Payslip
	err := s.db.GetContext(ctx, &payslip, query, params...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPayslipNotFound
		}
		return nil, fmt.Errorf("failed to get payslip: %w", err)
	}
	return &payslip, nil
}
