package planner

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultSessionDurationHours is the session length used by the application defaults.
	DefaultSessionDurationHours = 1.5
	// DefaultMaxSessionsPerDeadline caps how many sessions a single deadline may request.
	DefaultMaxSessionsPerDeadline = 12
	// DefaultPriority and DefaultDifficulty apply when a deadline leaves them unset.
	DefaultPriority   = 3
	DefaultDifficulty = 3

	maxOffsetIterations = 24
	backoffDays         = 3
)

// Config controls a planning run.
type Config struct {
	Now                    time.Time
	Location               *time.Location
	PreferredSlots         []PreferredSlot
	Intervals              []int
	SessionDurationHours   float64
	MaxSessionsPerDeadline int
	SubjectOverrides       map[string]SubjectOverride
}

// DefaultPreferredSlots returns the evening, weekend-morning and morning windows.
func DefaultPreferredSlots() []PreferredSlot {
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	return []PreferredSlot{
		{StartHour: 18, EndHour: 21, Days: append([]time.Weekday(nil), weekdays...), Label: "evening"},
		{StartHour: 9, EndHour: 12, Days: []time.Weekday{time.Sunday, time.Saturday}, Label: "weekend-morning"},
		{StartHour: 7, EndHour: 9, Days: append([]time.Weekday(nil), weekdays...), Label: "morning"},
	}
}

// DefaultIntervals returns the day offsets used when none are configured.
func DefaultIntervals() []int {
	return []int{1, 3, 7, 14}
}

// Normalize fills defaults and validates the configuration. The receiver is not modified.
func (c Config) Normalize() (Config, error) {
	if c.Now.IsZero() {
		return c, fmt.Errorf("%w: reference time is required", ErrInvalidConfig)
	}
	if c.Location == nil {
		c.Location = c.Now.Location()
	}
	c.Now = c.Now.In(c.Location)

	if len(c.Intervals) == 0 {
		c.Intervals = DefaultIntervals()
	} else {
		c.Intervals = append([]int(nil), c.Intervals...)
	}
	if len(c.PreferredSlots) == 0 {
		c.PreferredSlots = DefaultPreferredSlots()
	} else {
		c.PreferredSlots = append([]PreferredSlot(nil), c.PreferredSlots...)
	}
	if c.MaxSessionsPerDeadline <= 0 {
		c.MaxSessionsPerDeadline = DefaultMaxSessionsPerDeadline
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate reports configuration errors without applying defaults.
func (c Config) Validate() error {
	d := c.SessionDurationHours
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return fmt.Errorf("%w: session duration must be positive, got %v", ErrInvalidConfig, d)
	}
	if c.sessionLength() <= 0 {
		return fmt.Errorf("%w: session duration %v rounds to zero minutes", ErrInvalidConfig, d)
	}
	for i, offset := range c.Intervals {
		if offset < 0 {
			return fmt.Errorf("%w: interval %d is negative (%d)", ErrInvalidConfig, i, offset)
		}
	}
	fits := false
	for i, slot := range c.PreferredSlots {
		if err := validateSlot(slot); err != nil {
			return fmt.Errorf("%w: slot %d (%s): %v", ErrInvalidConfig, i, slotName(slot), err)
		}
		if float64(slot.StartHour)+d <= float64(slot.EndHour) {
			fits = true
		}
	}
	if len(c.PreferredSlots) > 0 && !fits {
		return fmt.Errorf("%w: no preferred slot can hold a %.2fh session", ErrInvalidConfig, d)
	}
	for subject, override := range c.SubjectOverrides {
		if override.EstimatedHours != nil {
			h := *override.EstimatedHours
			if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
				return fmt.Errorf("%w: override for %q has invalid estimated hours", ErrInvalidConfig, subject)
			}
		}
	}
	return nil
}

func validateSlot(slot PreferredSlot) error {
	if slot.StartHour < 0 || slot.StartHour > 23 {
		return fmt.Errorf("start hour %d out of range 0-23", slot.StartHour)
	}
	if slot.EndHour < 1 || slot.EndHour > 24 {
		return fmt.Errorf("end hour %d out of range 1-24", slot.EndHour)
	}
	if slot.StartHour >= slot.EndHour {
		return fmt.Errorf("start hour %d must be before end hour %d", slot.StartHour, slot.EndHour)
	}
	for _, day := range slot.Days {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("weekday %d out of range 0-6", day)
		}
	}
	return nil
}

func slotName(slot PreferredSlot) string {
	if strings.TrimSpace(slot.Label) != "" {
		return slot.Label
	}
	return fmt.Sprintf("%02d-%02d", slot.StartHour, slot.EndHour)
}

func (c Config) override(subject string) (SubjectOverride, bool) {
	if len(c.SubjectOverrides) == 0 {
		return SubjectOverride{}, false
	}
	if o, ok := c.SubjectOverrides[subject]; ok {
		return o, true
	}
	o, ok := c.SubjectOverrides[strings.ToLower(subject)]
	return o, ok
}

// sessionLength converts fractional hours into an exact duration (whole hours plus minutes).
func (c Config) sessionLength() time.Duration {
	whole := math.Floor(c.SessionDurationHours)
	minutes := math.Round((c.SessionDurationHours - whole) * 60)
	return time.Duration(whole)*time.Hour + time.Duration(minutes)*time.Minute
}
