package dto

import (
	"time"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// SubjectOverrideRequest replaces effort or priority for every exam of a subject.
type SubjectOverrideRequest struct {
	EstimatedHours *float64 `json:"estimated_hours" validate:"omitempty,min=0"`
	Priority       *int     `json:"priority" validate:"omitempty,min=1,max=5"`
}

// PlanPreviewRequest asks for a study plan proposal. Empty fields fall back to the
// user's stored preferences, then to application defaults.
type PlanPreviewRequest struct {
	ExamIDs                []string                          `json:"exam_ids"`
	PreferredSlots         []models.PreferredSlot            `json:"preferred_slots" validate:"omitempty,dive"`
	Intervals              []int                             `json:"intervals" validate:"omitempty,dive,min=0,max=365"`
	SessionDurationHours   *float64                          `json:"session_duration_hours" validate:"omitempty,gt=0,lte=24"`
	MaxSessionsPerDeadline *int                              `json:"max_sessions_per_deadline" validate:"omitempty,min=1,max=100"`
	Timezone               string                            `json:"timezone"`
	SubjectOverrides       map[string]SubjectOverrideRequest `json:"subject_overrides" validate:"omitempty,dive"`
}

// SuggestedSession is one proposed block of study time.
type SuggestedSession struct {
	ID         string    `json:"id"`
	ExamID     string    `json:"exam_id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Reason     string    `json:"reason"`
	SlotLabel  string    `json:"slot_label,omitempty"`
	DaysBefore int       `json:"days_before"`
}

// ExamPlanReport explains how many sessions an exam asked for and received.
type ExamPlanReport struct {
	ExamID    string `json:"exam_id"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Placed    int    `json:"placed"`
	PastDue   bool   `json:"past_due"`
}

// PlanPreviewResponse returns a proposal that can later be accepted or exported.
type PlanPreviewResponse struct {
	ProposalID  string             `json:"proposal_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Sessions    []SuggestedSession `json:"sessions"`
	Report      []ExamPlanReport   `json:"report"`
	Requested   int                `json:"requested"`
	Placed      int                `json:"placed"`
}

// AcceptPlanRequest persists some or all suggestions of a proposal.
type AcceptPlanRequest struct {
	ProposalID string   `json:"proposal_id" validate:"required"`
	SessionIDs []string `json:"session_ids"`
}

// AcceptPlanResponse lists the study sessions created from a proposal.
type AcceptPlanResponse struct {
	ProposalID string                `json:"proposal_id"`
	Sessions   []models.StudySession `json:"sessions"`
}

// PlanExport is a rendered proposal ready to be downloaded.
type PlanExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}
