package calendar

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleCalendarClient struct {
	config *oauth2.Config
	db     *sqlx.DB
}

func NewGoogleCalendarClient(credentialsPath string, db *sqlx.DB) (*GoogleCalendarClient, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &GoogleCalendarClient{
		config: config,
		db:     db,
	}, nil
}

func (g *GoogleCalendarClient) GetAuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *GoogleCalendarClient) HandleAuthCallback(ctx context.Context, code string, employeeID int64) error {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	return g.saveToken(employeeID, token)
}

// CreateAllDayEvent inserts an all-day event spanning [startDate, endDate]
// into the employee's primary calendar and returns the event id.
func (g *GoogleCalendarClient) CreateAllDayEvent(ctx context.Context, employeeID int64, title, description string, startDate, endDate time.Time) (string, error) {
	client, err := g.getClient(ctx, employeeID)
	if err != nil {
		return "", err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("failed to create calendar service: %w", err)
	}

	event := &calendar.Event{
		Summary:     title,
		Description: description,
		Start: &calendar.EventDateTime{
			Date: startDate.Format("2006-01-02"),
		},
		End: &calendar.EventDateTime{
			// Google all-day end dates are exclusive.
			Date: endDate.AddDate(0, 0, 1).Format("2006-01-02"),
		},
	}

	createdEvent, err := srv.Events.Insert("primary", event).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return createdEvent.Id, nil
}

func (g *GoogleCalendarClient) getClient(ctx context.Context, employeeID int64) (*http.Client, error) {
	token, err := g.loadToken(employeeID)
	if err != nil {
		return nil, fmt.Errorf("employee is not authorized with Google Calendar: %w", err)
	}

	if token.Expiry.Before(time.Now()) {
		newToken, err := g.config.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		if newToken.AccessToken != token.AccessToken {
			token = newToken
			if err := g.saveToken(employeeID, token); err != nil {
				return nil, err
			}
		}
	}

	return g.config.Client(ctx, token), nil
}

func (g *GoogleCalendarClient) saveToken(employeeID int64, token *oauth2.Token) error {
	query := `
		INSERT INTO google_tokens (employee_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (employee_id)
		DO UPDATE SET
			access_token = $2,
			refresh_token = COALESCE($3, google_tokens.refresh_token),
			token_type = $4,
			expiry = $5,
			updated_at = NOW()
	`

	var refreshToken interface{}
	if token.RefreshToken != "" {
		refreshToken = token.RefreshToken
	}

	_, err := g.db.Exec(query,
		employeeID,
		token.AccessToken,
		refreshToken,
		token.TokenType,
		token.Expiry)

	return err
}

func (g *GoogleCalendarClient) loadToken(employeeID int64) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM google_tokens
		WHERE employee_id = $1
	`

	var tokenData struct {
		AccessToken  string    `db:"access_token"`
		RefreshToken string    `db:"refresh_token"`
		TokenType    string    `db:"token_type"`
		Expiry       time.Time `db:"expiry"`
	}

	err := g.db.Get(&tokenData, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("token not found: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  tokenData.AccessToken,
		RefreshToken: tokenData.RefreshToken,
		TokenType:    tokenData.TokenType,
		Expiry:       tokenData.Expiry,
	}, nil
}
