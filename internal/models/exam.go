package models

import "time"

// ExamStatus tracks the lifecycle of an exam.
type ExamStatus string

const (
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// Exam is a deadline a user studies towards.
type Exam struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Title            string     `db:"title" json:"title"`
	Subject          string     `db:"subject" json:"subject"`
	Description      string     `db:"description" json:"description"`
	DueDate          time.Time  `db:"due_date" json:"due_date"`
	Priority         int        `db:"priority" json:"priority"`
	Difficulty       int        `db:"difficulty" json:"difficulty"`
	EstimatedHours   float64    `db:"estimated_hours" json:"estimated_hours"`
	Status           ExamStatus `db:"status" json:"status"`
	GoogleCalendarID *string    `db:"google_calendar_id" json:"google_calendar_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamFilter narrows exam listings.
type ExamFilter struct {
	UserID string
	Status ExamStatus
}
