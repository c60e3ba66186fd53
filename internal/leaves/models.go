package leaves

import (
	"time"
)

const (
	TypeCasual = "Casual"
	TypeSick   = "Sick"
	TypeEarned = "Earned"
	TypeUnpaid = "Unpaid"

	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

func LeaveTypes() []string {
	return []string{TypeCasual, TypeSick, TypeEarned, TypeUnpaid}
}

func Statuses() []string {
	return []string{StatusPending, StatusApproved, StatusRejected}
}

type LeaveRequest struct {
	ID              string    `db:"id" json:"id"`
	EmployeeID      int64     `db:"employee_id" json:"employee_id"`
	LeaveType       string    `db:"leave_type" json:"leave_type"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
	Days            float64   `db:"days" json:"days"`
	Reason          string    `db:"reason" json:"reason"`
	Status          string    `db:"status" json:"status"`
	AppliedVia      string    `db:"applied_via" json:"applied_via"`
	CalendarEventID *string   `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type Balance struct {
	EmployeeID int64   `db:"employee_id" json:"employee_id"`
	LeaveType  string  `db:"leave_type" json:"leave_type"`
	TotalDays  float64 `db:"total_days" json:"total_days"`
	UsedDays   float64 `db:"used_days" json:"used_days"`
}

func (b Balance) Remaining() float64 {
	return b.TotalDays - b.UsedDays
}
