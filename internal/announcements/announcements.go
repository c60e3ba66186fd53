package announcements

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Service struct {
	db *sqlx.DB
}

type Announcement struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	Audience    string    `db:"audience" json:"audience"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Announcement, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	query := `
		SELECT id, title, body, audience, published_at
		FROM announcements
		ORDER BY published_at DESC
		LIMIT $1
	`

	var result []Announcement
	err := s.db.SelectContext(ctx, &result, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get announcements: %w", err)
	}
	return result, nil
}
