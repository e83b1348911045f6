package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// PreferredSlot is the stored form of a daily study window.
type PreferredSlot struct {
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	Days      []int  `json:"days,omitempty"`
	Label     string `json:"label,omitempty"`
}

// UserPreference stores a user's planner settings.
type UserPreference struct {
	ID                   string         `db:"id" json:"id"`
	UserID               string         `db:"user_id" json:"user_id"`
	PreferredSlots       types.JSONText `db:"preferred_slots" json:"preferred_slots" swaggertype:"array,object"`
	Intervals            pq.Int64Array  `db:"intervals" json:"intervals" swaggertype:"array,integer"`
	SessionDurationHours float64        `db:"session_duration_hours" json:"session_duration_hours"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}
