package attendance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

type Service struct {
	db *sqlx.DB
}

type MonthlySummary struct {
	Month        string  `json:"month"`
	PresentDays  int     `json:"present_days"`
	AbsentDays   int     `json:"absent_days"`
	LateDays     int     `json:"late_days"`
	LeaveDays    int     `json:"leave_days"`
	TotalHours   float64 `json:"total_hours"`
	AverageHours float64 `json:"average_hours"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// MonthlySummary aggregates attendance for one employee and month (YYYY-MM).
// An empty month defaults to the current one.
func (s *Service) MonthlySummary(ctx context.Context, employeeID int64, month string) (*MonthlySummary, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if !monthPattern.MatchString(month) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'Present') AS present_days,
			COUNT(*) FILTER (WHERE status = 'Absent') AS absent_days,
			COUNT(*) FILTER (WHERE status = 'Late') AS late_days,
			COUNT(*) FILTER (WHERE status = 'Leave') AS leave_days,
			COALESCE(SUM(EXTRACT(EPOCH FROM (check_out - check_in)) / 3600), 0) AS total_hours
		FROM attendance_records
		WHERE employee_id = $1
		  AND TO_CHAR(work_date, 'YYYY-MM') = $2
	`

	var row struct {
		PresentDays int     `db:"present_days"`
		AbsentDays  int     `db:"absent_days"`
		LateDays    int     `db:"late_days"`
		LeaveDays   int     `db:"leave_days"`
		TotalHours  float64 `db:"total_hours"`
	}
	if err := s.db.GetContext(ctx, &row, query, employeeID, month); err != nil {
		return nil, fmt.Errorf("failed to get attendance summary: %w", err)
	}

	summary := &MonthlySummary{
		Month:       month,
		PresentDays: row.PresentDays,
		AbsentDays:  row.AbsentDays,
		LateDays:    row.LateDays,
		LeaveDays:   row.LeaveDays,
		TotalHours:  row.TotalHours,
	}
	workedDays := row.PresentDays + row.LateDays
	if workedDays > 0 {
		summary.AverageHours = row.TotalHours / float64(workedDays)
	}

	logrus.Debugf("Attendance summary for employee %d month %s: %d present", employeeID, month, row.PresentDays)
	return summary, nil
}
