package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Recorder persists daily usage. IncrementDay must be atomic per call:
// concurrent increments for the same day may never lose a count.
type Recorder interface {
	IncrementDay(ctx context.Context, day string, promptTokens, completionTokens int) error
	AppendLog(ctx context.Context, day string, employeeID int64, intent string, promptTokens, completionTokens *int) error
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// IncrementDay creates the day row lazily and bumps its counters in a single
// upsert statement, so the read-modify-write happens inside Postgres.
func (r *Repository) IncrementDay(ctx context.Context, day string, promptTokens, completionTokens int) error {
	query := `
		INSERT INTO ai_usage_days (usage_date, request_count, prompt_tokens, completion_tokens, updated_at)
		VALUES ($1, 1, $2, $3, NOW())
		ON CONFLICT (usage_date)
		DO UPDATE SET
			request_count = ai_usage_days.request_count + 1,
			prompt_tokens = ai_usage_days.prompt_tokens + $2,
			completion_tokens = ai_usage_days.completion_tokens + $3,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, day, promptTokens, completionTokens)
	if err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

func (r *Repository) AppendLog(ctx context.Context, day string, employeeID int64, intent string, promptTokens, completionTokens *int) error {
	query := `
		INSERT INTO ai_usage_log (usage_date, employee_id, intent, prompt_tokens, completion_tokens)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, day, employeeID, intent, promptTokens, completionTokens)
	if err != nil {
		return fmt.Errorf("failed to append usage log: %w", err)
	}
	return nil
}

type Service struct {
	recorder Recorder
}

func NewService(recorder Recorder) *Service {
	return &Service{recorder: recorder}
}

// Record accounts one assistant request under today's usage record. Failures
// are logged, not returned: usage accounting must never fail a user turn.
func (s *Service) Record(ctx context.Context, employeeID int64, intent string, promptTokens, completionTokens *int) {
	day := time.Now().Format("2006-01-02")

	pt, ct := 0, 0
	if promptTokens != nil {
		pt = *promptTokens
	}
	if completionTokens != nil {
		ct = *completionTokens
	}

	if err := s.recorder.IncrementDay(ctx, day, pt, ct); err != nil {
		logrus.Errorf("Failed to record usage for %s: %v", day, err)
		return
	}
	if err := s.recorder.AppendLog(ctx, day, employeeID, intent, promptTokens, completionTokens); err != nil {
		logrus.Warnf("Failed to append usage log for employee %d: %v", employeeID, err)
	}
}
