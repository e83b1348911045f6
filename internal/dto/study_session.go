package dto

import "time"

// CreateStudySessionRequest records a manually scheduled session.
type CreateStudySessionRequest struct {
	ExamID         string    `json:"exam_id" validate:"required"`
	Title          string    `json:"title" validate:"required,max=200"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	Notes          string    `json:"notes" validate:"max=2000"`
}

// UpdateStudySessionRequest tracks progress on a session.
type UpdateStudySessionRequest struct {
	Completed   *bool      `json:"completed"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	ActualStart *time.Time `json:"actual_start"`
	ActualEnd   *time.Time `json:"actual_end"`
}

// StudySessionQuery filters session listings.
type StudySessionQuery struct {
	ExamID   string `form:"exam_id"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=200"`
}
