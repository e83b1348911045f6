package models

import "time"

// CalendarEvent is an external commitment imported from the user's calendar.
type CalendarEvent struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CalendarFilter selects events overlapping [From, To).
type CalendarFilter struct {
	UserID string
	From   time.Time
	To     time.Time
}
