package planner

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalizeAppliesDefaults(t *testing.T) {
	cfg, err := Config{Now: baseNow, SessionDurationHours: 1.5}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, DefaultIntervals(), cfg.Intervals)
	assert.Equal(t, DefaultPreferredSlots(), cfg.PreferredSlots)
	assert.Equal(t, DefaultMaxSessionsPerDeadline, cfg.MaxSessionsPerDeadline)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 90*time.Minute, cfg.sessionLength())
}

func TestConfigNormalizeDoesNotAliasCallerSlices(t *testing.T) {
	intervals := []int{2, 4}
	cfg, err := Config{Now: baseNow, SessionDurationHours: 1, Intervals: intervals}.Normalize()
	require.NoError(t, err)

	cfg.Intervals[0] = 99
	assert.Equal(t, 2, intervals[0])
}

func TestConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "zero duration", cfg: Config{Now: baseNow}},
		{name: "negative duration", cfg: Config{Now: baseNow, SessionDurationHours: -1}},
		{name: "nan duration", cfg: Config{Now: baseNow, SessionDurationHours: math.NaN()}},
		{name: "duration under half a minute", cfg: Config{Now: baseNow, SessionDurationHours: 0.005}},
		{name: "missing now", cfg: Config{SessionDurationHours: 1}},
		{name: "negative interval", cfg: Config{Now: baseNow, SessionDurationHours: 1, Intervals: []int{1, -3}}},
		{name: "inverted slot", cfg: Config{Now: baseNow, SessionDurationHours: 1, PreferredSlots: []PreferredSlot{{StartHour: 20, EndHour: 18}}}},
		{name: "hour out of range", cfg: Config{Now: baseNow, SessionDurationHours: 1, PreferredSlots: []PreferredSlot{{StartHour: 22, EndHour: 25}}}},
		{name: "bad weekday", cfg: Config{Now: baseNow, SessionDurationHours: 1, PreferredSlots: []PreferredSlot{{StartHour: 8, EndHour: 10, Days: []time.Weekday{7}}}}},
		{name: "duration longer than every slot", cfg: Config{Now: baseNow, SessionDurationHours: 3.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Normalize()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestConfigValidateAcceptsOneFittingSlot(t *testing.T) {
	cfg := Config{
		Now:                  baseNow,
		SessionDurationHours: 2.5,
		PreferredSlots: []PreferredSlot{
			{StartHour: 7, EndHour: 9, Label: "morning"},
			{StartHour: 18, EndHour: 21, Label: "evening"},
		},
	}
	_, err := cfg.Normalize()
	assert.NoError(t, err)
}

func TestConfigSessionLengthSplitsHoursAndMinutes(t *testing.T) {
	assert.Equal(t, 2*time.Hour+45*time.Minute, Config{SessionDurationHours: 2.75}.sessionLength())
	assert.Equal(t, 30*time.Minute, Config{SessionDurationHours: 0.5}.sessionLength())
}

func TestPreferredSlotAllows(t *testing.T) {
	slot := PreferredSlot{StartHour: 9, EndHour: 12, Days: []time.Weekday{time.Saturday, time.Sunday}}
	assert.True(t, slot.allows(time.Sunday))
	assert.False(t, slot.allows(time.Monday))
	assert.True(t, PreferredSlot{StartHour: 9, EndHour: 12}.allows(time.Wednesday))
}
