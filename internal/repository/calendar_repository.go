package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// CalendarEventRepository reads imported calendar events.
type CalendarEventRepository struct {
	db *sqlx.DB
}

// NewCalendarEventRepository constructs the repository.
func NewCalendarEventRepository(db *sqlx.DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

// ListOverlapping returns the user's events that intersect [From, To), earliest first.
func (r *CalendarEventRepository) ListOverlapping(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	const query = `SELECT id, user_id, title, start_time, end_time, source, created_at, updated_at
FROM calendar_events
WHERE user_id = $1 AND start_time < $2 AND end_time > $3
ORDER BY start_time ASC, id ASC`
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, filter.UserID, filter.To, filter.From); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}
