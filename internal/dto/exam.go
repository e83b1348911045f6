package dto

import (
	"time"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// CreateExamRequest registers a new exam. Priority and difficulty are clamped to 1-5.
type CreateExamRequest struct {
	Title            string    `json:"title" validate:"required,max=200"`
	Subject          string    `json:"subject" validate:"required,max=100"`
	Description      string    `json:"description" validate:"max=2000"`
	DueDate          time.Time `json:"due_date" validate:"required"`
	Priority         *int      `json:"priority" validate:"required"`
	Difficulty       *int      `json:"difficulty" validate:"required"`
	EstimatedHours   *float64  `json:"estimated_hours" validate:"required"`
	GoogleCalendarID *string   `json:"google_calendar_id"`
}

// UpdateExamRequest patches an exam. Nil fields are left untouched.
type UpdateExamRequest struct {
	Title            *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Subject          *string            `json:"subject" validate:"omitempty,min=1,max=100"`
	Description      *string            `json:"description" validate:"omitempty,max=2000"`
	DueDate          *time.Time         `json:"due_date"`
	Priority         *int               `json:"priority"`
	Difficulty       *int               `json:"difficulty"`
	EstimatedHours   *float64           `json:"estimated_hours"`
	Status           *models.ExamStatus `json:"status" validate:"omitempty,oneof=active completed cancelled"`
	GoogleCalendarID *string            `json:"google_calendar_id"`
}

// DeleteExamResponse reports the cascade performed by an exam deletion.
type DeleteExamResponse struct {
	ExamID          string `json:"exam_id"`
	DeletedSessions int    `json:"deleted_sessions"`
}
