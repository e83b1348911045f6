package dto

import "github.com/noah-isme/studyplan-api/internal/models"

// PreferenceSource tells whether preferences came from storage or configured defaults.
type PreferenceSource string

const (
	PreferenceSourceStored  PreferenceSource = "stored"
	PreferenceSourceDefault PreferenceSource = "default"
)

// UpsertPreferenceRequest replaces a user's planner preferences.
type UpsertPreferenceRequest struct {
	PreferredSlots       []models.PreferredSlot `json:"preferred_slots" validate:"required,min=1,dive"`
	Intervals            []int                  `json:"intervals" validate:"required,min=1,dive,min=0,max=365"`
	SessionDurationHours float64                `json:"session_duration_hours" validate:"required,gt=0,lte=24"`
}

// PlannerPreferences is the resolved preference set used for planning.
type PlannerPreferences struct {
	PreferredSlots       []models.PreferredSlot `json:"preferred_slots"`
	Intervals            []int                  `json:"intervals"`
	SessionDurationHours float64                `json:"session_duration_hours"`
	Source               PreferenceSource       `json:"source"`
}
