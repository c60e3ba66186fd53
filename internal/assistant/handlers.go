package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrmserver/internal/announcements"
	"hrmserver/internal/attendance"
	"hrmserver/internal/calendar"
	"hrmserver/internal/employees"
	"hrmserver/internal/leaves"
	"hrmserver/internal/payroll"

	"github.com/sirupsen/logrus"
)

var errUnauthorizedLookup = errors.New("you are not allowed to look up other employees")

// Collaborator interfaces. The concrete services satisfy them; tests
// substitute fakes.

type LeaveService interface {
	Apply(ctx context.Context, employeeID int64, leaveType string, startDate, endDate time.Time, reason, appliedVia string) (*leaves.LeaveRequest, error)
	Balances(ctx context.Context, employeeID int64) ([]leaves.Balance, error)
	History(ctx context.Context, employeeID int64, status string) ([]leaves.LeaveRequest, error)
	SetCalendarEventID(ctx context.Context, requestID, eventID string) error
}

type AttendanceService interface {
	MonthlySummary(ctx context.Context, employeeID int64, month string) (*attendance.MonthlySummary, error)
}

type PayrollService interface {
	Payslip(ctx context.Context, employeeID int64, month string) (*payroll.Payslip, error)
}

type EmployeeService interface {
	GetProfile(ctx context.Context, employeeID int64) (*employees.Employee, error)
	Search(ctx context.Context, query string, limit int) ([]employees.Employee, error)
}

type AnnouncementService interface {
	Recent(ctx context.Context, limit int) ([]announcements.Announcement, error)
}

type HolidayService interface {
	Holidays(ctx context.Context, year int) ([]calendar.Holiday, error)
}

type LeaveCalendarSync interface {
	SyncLeave(ctx context.Context, request *leaves.LeaveRequest) (string, error)
}

// Collaborators bundles everything the tool handlers reach into.
type Collaborators struct {
	Leaves        LeaveService
	Attendance    AttendanceService
	Payroll       PayrollService
	Employees     EmployeeService
	Announcements AnnouncementService
	Holidays      HolidayService
	CalendarSync  LeaveCalendarSync
}

// BuildHandlers returns the registry keyed identically to the catalog.
// Adding a tool means adding a definition and a registry entry; the
// dispatcher's control flow never changes.
func BuildHandlers(c Collaborators) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		GetLeaveBalanceTool.Name:      handleGetLeaveBalance(c.Leaves),
		ApplyLeaveTool.Name:           handleApplyLeave(c.Leaves, c.CalendarSync),
		GetLeaveHistoryTool.Name:      handleGetLeaveHistory(c.Leaves),
		GetAttendanceSummaryTool.Name: handleGetAttendanceSummary(c.Attendance),
		GetPayslipTool.Name:           handleGetPayslip(c.Payroll),
		GetEmployeeProfileTool.Name:   handleGetEmployeeProfile(c.Employees),
		SearchEmployeesTool.Name:      handleSearchEmployees(c.Employees),
		GetHolidaysTool.Name:          handleGetHolidays(c.Holidays),
		GetAnnouncementsTool.Name:     handleGetAnnouncements(c.Announcements),
	}
}

// resolveTargetEmployee applies the default-to-caller rule: tools operate on
// the actor's own records unless an explicit employee_id is given and the
// actor's role permits it.
func resolveTargetEmployee(actor Actor, args Args) (int64, error) {
	if !args.Has("employee_id") {
		return actor.ID, nil
	}
	target := args.Int64("employee_id")
	if target == actor.ID {
		return actor.ID, nil
	}
	if !actor.CanViewOthers() {
		return 0, errUnauthorizedLookup
	}
	return target, nil
}

func handleGetLeaveBalance(svc LeaveService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		target, err := resolveTargetEmployee(actor, args)
		if err != nil {
			return nil, err
		}

		balances, err := svc.Balances(ctx, target)
		if err != nil {
			return nil, err
		}

		type balanceView struct {
			LeaveType string  `json:"leave_type"`
			Total     float64 `json:"total_days"`
			Used      float64 `json:"used_days"`
			Remaining float64 `json:"remaining_days"`
		}
		views := make([]balanceView, 0, len(balances))
		for _, b := range balances {
			views = append(views, balanceView{
				LeaveType: b.LeaveType,
				Total:     b.TotalDays,
				Used:      b.UsedDays,
				Remaining: b.Remaining(),
			})
		}
		return views, nil
	}
}

func handleApplyLeave(svc LeaveService, sync LeaveCalendarSync) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		startDate, err := parseDate(args.String("start_date"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start_date", leaves.ErrValidation)
		}
		endDate, err := parseDate(args.String("end_date"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end_date", leaves.ErrValidation)
		}

		request, err := svc.Apply(ctx, actor.ID, args.String("leave_type"), startDate, endDate, args.String("reason"), "assistant")
		if err != nil {
			return nil, err
		}

		if sync != nil {
			if eventID, err := sync.SyncLeave(ctx, request); err == nil && eventID != "" {
				if err := svc.SetCalendarEventID(ctx, request.ID, eventID); err != nil {
					logrus.Warnf("Failed to store calendar event id for leave %s: %v", request.ID, err)
				}
			}
		}

		return map[string]interface{}{
			"request_id": request.ID,
			"leave_type": request.LeaveType,
			"start_date": request.StartDate.Format("2006-01-02"),
			"end_date":   request.EndDate.Format("2006-01-02"),
			"days":       request.Days,
			"status":     request.Status,
		}, nil
	}
}

func handleGetLeaveHistory(svc LeaveService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		history, err := svc.History(ctx, actor.ID, args.String("status"))
		if err != nil {
			return nil, err
		}

		type requestView struct {
			RequestID string  `json:"request_id"`
			LeaveType string  `json:"leave_type"`
			StartDate string  `json:"start_date"`
			EndDate   string  `json:"end_date"`
			Days      float64 `json:"days"`
			Status    string  `json:"status"`
			Reason    string  `json:"reason,omitempty"`
		}
		views := make([]requestView, 0, len(history))
		for _, r := range history {
			views = append(views, requestView{
				RequestID: r.ID,
				LeaveType: r.LeaveType,
				StartDate: r.StartDate.Format("2006-01-02"),
				EndDate:   r.EndDate.Format("2006-01-02"),
				Days:      r.Days,
				Status:    r.Status,
				Reason:    r.Reason,
			})
		}
		return views, nil
	}
}

func handleGetAttendanceSummary(svc AttendanceService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		target, err := resolveTargetEmployee(actor, args)
		if err != nil {
			return nil, err
		}
		return svc.MonthlySummary(ctx, target, args.String("month"))
	}
}

func handleGetPayslip(svc PayrollService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		return svc.Payslip(ctx, actor.ID, args.String("month"))
	}
}

func handleGetEmployeeProfile(svc EmployeeService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		target, err := resolveTargetEmployee(actor, args)
		if err != nil {
			return nil, err
		}

		profile, err := svc.GetProfile(ctx, target)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"employee_id": profile.ID,
			"full_name":   profile.FullName,
			"department":  profile.Department,
			"position":    profile.Position,
			"joined_at":   profile.JoinedAt,
		}, nil
	}
}

func handleSearchEmployees(svc EmployeeService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		found, err := svc.Search(ctx, args.String("query"), 10)
		if err != nil {
			return nil, err
		}

		type directoryView struct {
			EmployeeID int64  `json:"employee_id"`
			FullName   string `json:"full_name"`
			Department string `json:"department"`
			Position   string `json:"position"`
		}
		views := make([]directoryView, 0, len(found))
		for _, e := range found {
			views = append(views, directoryView{
				EmployeeID: e.ID,
				FullName:   e.FullName,
				Department: e.Department,
				Position:   e.Position,
			})
		}
		return views, nil
	}
}

func handleGetHolidays(svc HolidayService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		return svc.Holidays(ctx, args.Int("year"))
	}
}

func handleGetAnnouncements(svc AnnouncementService) HandlerFunc {
	return func(ctx context.Context, actor Actor, args Args) (interface{}, error) {
		limit := args.Int("limit")
		if limit <= 0 {
			limit = 5
		}
		return svc.Recent(ctx, limit)
	}
}

// domainMessage maps collaborator errors with user-safe text onto the tool
// result; anything unlisted stays generic.
func domainMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, errUnauthorizedLookup):
		return errUnauthorizedLookup.Error(), true
	case errors.Is(err, leaves.ErrValidation):
		return err.Error(), true
	case errors.Is(err, leaves.ErrInsufficientBalance):
		return "there is not enough leave balance for this request", true
	case errors.Is(err, leaves.ErrOverlappingRequest):
		return "an overlapping leave request already exists", true
	case errors.Is(err, payroll.ErrPayslipNotFound):
		return "no payslip was found for that month", true
	case errors.Is(err, payroll.ErrInvalidMonth), errors.Is(err, attendance.ErrInvalidMonth):
		return "the month must be in YYYY-MM format", true
	case errors.Is(err, employees.ErrEmployeeNotFound):
		return "that employee was not found", true
	}
	return "", false
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
