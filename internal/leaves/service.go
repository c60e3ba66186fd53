package leaves

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrValidation          = errors.New("leave request validation failed")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlappingRequest  = errors.New("overlapping leave request already exists")
)

// leaveStore is the persistence surface Apply and the read paths rely on.
type leaveStore interface {
	CreateRequest(ctx context.Context, req *LeaveRequest, reserveBalance bool) (bool, error)
	GetBalances(ctx context.Context, employeeID int64) ([]Balance, error)
	GetHistory(ctx context.Context, employeeID int64, status string) ([]LeaveRequest, error)
	HasOverlappingRequest(ctx context.Context, employeeID int64, startDate, endDate time.Time) (bool, error)
	SetCalendarEventID(ctx context.Context, requestID, eventID string) error
}

type Service struct {
	repo leaveStore
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Apply(ctx context.Context, employeeID int64, leaveType string, startDate, endDate time.Time, reason, appliedVia string) (*LeaveRequest, error) {
	if !isValidType(leaveType) {
		return nil, fmt.Errorf("%w: unknown leave type %q", ErrValidation, leaveType)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if startDate.Before(today) {
		return nil, fmt.Errorf("%w: start date is in the past", ErrValidation)
	}

	overlapping, err := s.repo.HasOverlappingRequest(ctx, employeeID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, ErrOverlappingRequest
	}

	days := endDate.Sub(startDate).Hours()/24 + 1

	request := &LeaveRequest{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		Days:       days,
		Reason:     reason,
		Status:     StatusPending,
		AppliedVia: appliedVia,
	}

	// Unpaid leave has no balance to reserve; everything else reserves days
	// in the same transaction as the insert.
	created, err := s.repo.CreateRequest(ctx, request, leaveType != TypeUnpaid)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrInsufficientBalance
	}

	logrus.Infof("Leave request %s created for employee %d (%s, %.0f days)",
		request.ID, employeeID, leaveType, days)
	return request, nil
}

func (s *Service) Balances(ctx context.Context, employeeID int64) ([]Balance, error) {
	logrus.Debugf("Fetching leave balances for employee %d", employeeID)
	return s.repo.GetBalances(ctx, employeeID)
}

func (s *Service) History(ctx context.Context, employeeID int64, status string) ([]LeaveRequest, error) {
	if status != "" && !isValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	logrus.Debugf("Fetching leave history for employee %d (status=%q)", employeeID, status)
	return s.repo.GetHistory(ctx, employeeID, status)
}

func (s *Service) SetCalendarEventID(ctx context.Context, requestID, eventID string) error {
	return s.repo.SetCalendarEventID(ctx, requestID, eventID)
}

func isValidType(leaveType string) bool {
	for _, t := range LeaveTypes() {
		if t == leaveType {
			return true
		}
	}
	return false
}

func isValidStatus(status string) bool {
	for _, s := range Statuses() {
		if s == status {
			return true
		}
	}
	return false
}
