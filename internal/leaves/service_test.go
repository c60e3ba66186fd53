package leaves

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	d, _ := time.Parse("2006-01-02", value)
	return d
}

type fakeLeaveStore struct {
	created       []*LeaveRequest
	reserveFlags  []bool
	createOK      bool
	createErr     error
	history       []LeaveRequest
	historyStatus []string
	overlapping   bool
}

func (f *fakeLeaveStore) CreateRequest(ctx context.Context, req *LeaveRequest, reserveBalance bool) (bool, error) {
	f.created = append(f.created, req)
	f.reserveFlags = append(f.reserveFlags, reserveBalance)
	if f.createErr != nil {
		return false, f.createErr
	}
	return f.createOK, nil
}

func (f *fakeLeaveStore) GetBalances(ctx context.Context, employeeID int64) ([]Balance, error) {
	return nil, nil
}

func (f *fakeLeaveStore) GetHistory(ctx context.Context, employeeID int64, status string) ([]LeaveRequest, error) {
	f.historyStatus = append(f.historyStatus, status)
	return f.history, nil
}

func (f *fakeLeaveStore) HasOverlappingRequest(ctx context.Context, employeeID int64, startDate, endDate time.Time) (bool, error) {
	return f.overlapping, nil
}

func (f *fakeLeaveStore) SetCalendarEventID(ctx context.Context, requestID, eventID string) error {
	return nil
}

func TestApplyValidation(t *testing.T) {
	// Validation happens before any database access.
	service := NewService(NewRepository(nil))
	future := time.Now().AddDate(0, 1, 0)

	_, err := service.Apply(context.Background(), 1, "Vacation", future, future, "", "web")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Apply(context.Background(), 1, TypeCasual, future.AddDate(0, 0, 3), future, "", "web")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Apply(context.Background(), 1, TypeCasual, date("2020-01-01"), date("2020-01-02"), "", "web")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyReservesBalanceWithCreate(t *testing.T) {
	store := &fakeLeaveStore{createOK: true}
	service := &Service{repo: store}
	start := time.Now().AddDate(0, 1, 0)

	request, err := service.Apply(context.Background(), 1, TypeCasual, start, start.AddDate(0, 0, 2), "trip", "web")
	require.NoError(t, err)
	assert.Equal(t, 3.0, request.Days)
	assert.Equal(t, StatusPending, request.Status)

	// Reservation travels with the insert in a single store call, so a
	// failed insert cannot strand reserved days.
	require.Len(t, store.created, 1)
	assert.Equal(t, []bool{true}, store.reserveFlags)
}

func TestApplyUnpaidSkipsReservation(t *testing.T) {
	store := &fakeLeaveStore{createOK: true}
	service := &Service{repo: store}
	start := time.Now().AddDate(0, 1, 0)

	_, err := service.Apply(context.Background(), 1, TypeUnpaid, start, start, "", "web")
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, store.reserveFlags)
}

func TestApplyInsufficientBalance(t *testing.T) {
	store := &fakeLeaveStore{createOK: false}
	service := &Service{repo: store}
	start := time.Now().AddDate(0, 1, 0)

	_, err := service.Apply(context.Background(), 1, TypeSick, start, start.AddDate(0, 0, 30), "", "web")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestApplyCreateFailurePropagates(t *testing.T) {
	store := &fakeLeaveStore{createErr: errors.New("pq: connection reset")}
	service := &Service{repo: store}
	start := time.Now().AddDate(0, 1, 0)

	_, err := service.Apply(context.Background(), 1, TypeCasual, start, start, "", "web")
	assert.Error(t, err)
	assert.Len(t, store.created, 1)
}

func TestApplyRejectsOverlap(t *testing.T) {
	store := &fakeLeaveStore{overlapping: true}
	service := &Service{repo: store}
	start := time.Now().AddDate(0, 1, 0)

	_, err := service.Apply(context.Background(), 1, TypeCasual, start, start, "", "web")
	assert.ErrorIs(t, err, ErrOverlappingRequest)
	assert.Empty(t, store.created)
}

func TestHistoryPassesStatusFilter(t *testing.T) {
	store := &fakeLeaveStore{}
	service := &Service{repo: store}

	_, err := service.History(context.Background(), 1, StatusApproved)
	require.NoError(t, err)

	_, err = service.History(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, []string{StatusApproved, ""}, store.historyStatus)
}

func TestHistoryRejectsUnknownStatus(t *testing.T) {
	service := NewService(NewRepository(nil))

	_, err := service.History(context.Background(), 1, "Cancelled")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBalanceRemaining(t *testing.T) {
	b := Balance{TotalDays: 12, UsedDays: 4.5}
	assert.Equal(t, 7.5, b.Remaining())
}

func TestLeaveTypesAndStatuses(t *testing.T) {
	assert.Contains(t, LeaveTypes(), TypeCasual)
	assert.Contains(t, LeaveTypes(), TypeUnpaid)
	assert.Contains(t, Statuses(), StatusPending)
	assert.Len(t, LeaveTypes(), 4)
	assert.Len(t, Statuses(), 3)
}
