package models

import "time"

// StudySession is a persisted block of study time, either manual or accepted from a plan.
type StudySession struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	ExamID           string     `db:"exam_id" json:"exam_id"`
	Title            string     `db:"title" json:"title"`
	ScheduledStart   time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time  `db:"scheduled_end" json:"scheduled_end"`
	ActualStart      *time.Time `db:"actual_start" json:"actual_start,omitempty"`
	ActualEnd        *time.Time `db:"actual_end" json:"actual_end,omitempty"`
	Completed        bool       `db:"completed" json:"completed"`
	Notes            string     `db:"notes" json:"notes"`
	GoogleCalendarID *string    `db:"google_calendar_id" json:"google_calendar_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// StudySessionFilter narrows session listings. Zero times leave the range open and
// a zero page size returns every match.
type StudySessionFilter struct {
	UserID   string
	ExamID   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}
