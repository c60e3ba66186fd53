package calendar

import (
	"context"
	"fmt"
	"hrmserver/internal/leaves"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type Service struct {
	db           *sqlx.DB
	googleClient *GoogleCalendarClient
}

type Holiday struct {
	ID   int64     `db:"id" json:"id"`
	Date time.Time `db:"holiday_date" json:"date"`
	Name string    `db:"name" json:"name"`
}

// NewService builds the holiday/leave calendar service. googleClient may be
// nil when Google credentials are not configured; sync then becomes a no-op.
func NewService(db *sqlx.DB, googleClient *GoogleCalendarClient) *Service {
	return &Service{
		db:           db,
		googleClient: googleClient,
	}
}

// Holidays lists company holidays for a year; zero means the current year.
func (s *Service) Holidays(ctx context.Context, year int) ([]Holiday, error) {
	if year == 0 {
		year = time.Now().Year()
	}

	query := `
		SELECT id, holiday_date, name
		FROM holidays
		WHERE EXTRACT(YEAR FROM holiday_date) = $1
		ORDER BY holiday_date
	`

	var holidays []Holiday
	err := s.db.SelectContext(ctx, &holidays, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	return holidays, nil
}

// SyncLeave pushes a leave request to the employee's Google Calendar as an
// all-day event. Returns an empty id when sync is disabled or the employee
// has not connected a calendar.
func (s *Service) SyncLeave(ctx context.Context, request *leaves.LeaveRequest) (string, error) {
	if s.googleClient == nil {
		return "", nil
	}

	title := fmt.Sprintf("%s leave", request.LeaveType)
	description := request.Reason

	eventID, err := s.googleClient.CreateAllDayEvent(ctx, request.EmployeeID, title, description, request.StartDate, request.EndDate)
	if err != nil {
		// Missing authorization is expected for most employees.
		logrus.Debugf("Skipping calendar sync for leave %s: %v", request.ID, err)
		return "", nil
	}

	logrus.Infof("Synced leave %s to Google Calendar event %s", request.ID, eventID)
	return eventID, nil
}

func (s *Service) GetAuthURL(state string) (string, error) {
	if s.googleClient == nil {
		return "", fmt.Errorf("google calendar integration is not configured")
	}
	return s.googleClient.GetAuthURL(state), nil
}

func (s *Service) HandleAuthCallback(ctx context.Context, code string, employeeID int64) error {
	if s.googleClient == nil {
		return fmt.Errorf("google calendar integration is not configured")
	}
	return s.googleClient.HandleAuthCallback(ctx, code, employeeID)
}
