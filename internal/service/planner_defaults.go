package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/planner"
)

// PlannerDefaults are the application-wide planner settings users start from.
type PlannerDefaults struct {
	PreferredSlots         []planner.PreferredSlot
	Intervals              []int
	SessionDurationHours   float64
	MaxSessionsPerDeadline int
	Location               *time.Location
	ProposalTTL            time.Duration
}

func (d PlannerDefaults) withFallbacks() PlannerDefaults {
	if len(d.PreferredSlots) == 0 {
		d.PreferredSlots = planner.DefaultPreferredSlots()
	}
	if len(d.Intervals) == 0 {
		d.Intervals = planner.DefaultIntervals()
	}
	if d.SessionDurationHours <= 0 {
		d.SessionDurationHours = planner.DefaultSessionDurationHours
	}
	if d.MaxSessionsPerDeadline <= 0 {
		d.MaxSessionsPerDeadline = planner.DefaultMaxSessionsPerDeadline
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.ProposalTTL <= 0 {
		d.ProposalTTL = 30 * time.Minute
	}
	return d
}

func (d PlannerDefaults) preferences() *dto.PlannerPreferences {
	return &dto.PlannerPreferences{
		PreferredSlots:       slotsToModel(d.PreferredSlots),
		Intervals:            append([]int(nil), d.Intervals...),
		SessionDurationHours: d.SessionDurationHours,
		Source:               dto.PreferenceSourceDefault,
	}
}

func slotsToPlanner(slots []models.PreferredSlot) []planner.PreferredSlot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]planner.PreferredSlot, 0, len(slots))
	for _, slot := range slots {
		ps := planner.PreferredSlot{StartHour: slot.StartHour, EndHour: slot.EndHour, Label: strings.TrimSpace(slot.Label)}
		for _, day := range slot.Days {
			ps.Days = append(ps.Days, time.Weekday(day))
		}
		out = append(out, ps)
	}
	return out
}

func slotsToModel(slots []planner.PreferredSlot) []models.PreferredSlot {
	out := make([]models.PreferredSlot, 0, len(slots))
	for _, slot := range slots {
		ms := models.PreferredSlot{StartHour: slot.StartHour, EndHour: slot.EndHour, Label: slot.Label}
		for _, day := range slot.Days {
			ms.Days = append(ms.Days, int(day))
		}
		out = append(out, ms)
	}
	return out
}

func preferenceFromModel(pref *models.UserPreference) (*dto.PlannerPreferences, error) {
	var slots []models.PreferredSlot
	if len(pref.PreferredSlots) > 0 {
		if err := json.Unmarshal(pref.PreferredSlots, &slots); err != nil {
			return nil, fmt.Errorf("decode preferred slots: %w", err)
		}
	}
	intervals := make([]int, 0, len(pref.Intervals))
	for _, v := range pref.Intervals {
		intervals = append(intervals, int(v))
	}
	return &dto.PlannerPreferences{
		PreferredSlots:       slots,
		Intervals:            intervals,
		SessionDurationHours: pref.SessionDurationHours,
		Source:               dto.PreferenceSourceStored,
	}, nil
}
