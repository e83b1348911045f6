// Package planner places study sessions before deadlines without colliding with
// existing commitments. It is a pure computation: no I/O, no shared state, safe for
// concurrent use.
package planner

import (
	"fmt"
	"math"
	"sort"
	"time"
)

type plannedDeadline struct {
	Deadline
	due        time.Time
	priority   int
	difficulty int
	hours      float64
}

// ComputeSuggestions greedily places study sessions for every future deadline.
//
// Deadlines are processed by priority (descending) then due time (ascending), and
// each placed session is added to the occupancy set before the next placement, so
// the output never overlaps itself or busy. Offsets that cannot be placed within
// the backoff window are skipped and show up in Result.Report as Placed < Requested.
func ComputeSuggestions(deadlines []Deadline, busy []BusyInterval, cfg Config) (*Result, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	if err := validateBusy(busy); err != nil {
		return nil, err
	}
	active, pastDue, err := prepareDeadlines(deadlines, cfg)
	if err != nil {
		return nil, err
	}

	state := newPlanState(cfg, busy)
	result := &Result{
		Sessions: make([]SuggestedSession, 0),
		Report:   make([]DeadlineReport, 0, len(deadlines)),
	}
	for _, dl := range active {
		offsets := dayOffsets(cfg.Intervals, sessionCount(dl, cfg))
		placed := 0
		for _, offset := range offsets {
			session, ok := state.place(dl, offset)
			if !ok {
				continue
			}
			result.Sessions = append(result.Sessions, session)
			placed++
		}
		result.Report = append(result.Report, DeadlineReport{
			DeadlineID: dl.ID,
			Requested:  len(offsets),
			Placed:     placed,
		})
	}
	for _, dl := range pastDue {
		result.Report = append(result.Report, DeadlineReport{DeadlineID: dl.ID, PastDue: true})
	}
	return result, nil
}

func validateBusy(busy []BusyInterval) error {
	for i, b := range busy {
		if b.Start.IsZero() || b.End.IsZero() {
			return fmt.Errorf("%w: busy interval %d (%s) has no bounds", ErrInvalidInput, i, b.ID)
		}
		if b.End.Before(b.Start) {
			return fmt.Errorf("%w: busy interval %d (%s) ends before it starts", ErrInvalidInput, i, b.ID)
		}
	}
	return nil
}

func prepareDeadlines(deadlines []Deadline, cfg Config) (active, pastDue []plannedDeadline, err error) {
	for i, d := range deadlines {
		if d.Due.IsZero() {
			return nil, nil, fmt.Errorf("%w: deadline %d (%s) has no due time", ErrInvalidInput, i, d.ID)
		}
		hours := d.EstimatedHours
		priority := d.Priority
		if o, ok := cfg.override(d.Subject); ok {
			if o.EstimatedHours != nil {
				hours = *o.EstimatedHours
			}
			if o.Priority != nil {
				priority = *o.Priority
			}
		}
		if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
			return nil, nil, fmt.Errorf("%w: deadline %d (%s) has invalid estimated hours", ErrInvalidInput, i, d.ID)
		}

		pd := plannedDeadline{
			Deadline:   d,
			due:        d.Due.In(cfg.Location),
			priority:   clampLevel(priority, DefaultPriority),
			difficulty: clampLevel(d.Difficulty, DefaultDifficulty),
			hours:      hours,
		}
		if !pd.due.After(cfg.Now) {
			pastDue = append(pastDue, pd)
			continue
		}
		active = append(active, pd)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].priority != active[j].priority {
			return active[i].priority > active[j].priority
		}
		return active[i].due.Before(active[j].due)
	})
	return active, pastDue, nil
}

func clampLevel(v, fallback int) int {
	switch {
	case v == 0:
		return fallback
	case v < 1:
		return 1
	case v > 5:
		return 5
	}
	return v
}

// sessionCount scales effort by difficulty (0.6x at 1, 1.4x at 5) and adds one
// extra session per two priority levels above 3.
func sessionCount(dl plannedDeadline, cfg Config) int {
	multiplier := 1 + float64(dl.difficulty-3)*0.2
	// Epsilon keeps float noise like 2.0000000000000004 from costing a whole session.
	base := math.Ceil(dl.hours*multiplier/cfg.SessionDurationHours - 1e-9)
	if base < 1 {
		base = 1
	}
	extra := (dl.priority - 3) / 2
	if extra < 0 {
		extra = 0
	}
	limit := float64(cfg.MaxSessionsPerDeadline)
	if base+float64(extra) >= limit {
		return cfg.MaxSessionsPerDeadline
	}
	return int(base) + extra
}

// dayOffsets cycles through intervals, pushing each extra lap back by the last interval.
func dayOffsets(intervals []int, count int) []int {
	l := len(intervals)
	if l == 0 || count <= 0 {
		return nil
	}
	step := intervals[l-1]
	if step < 1 {
		step = 1
	}
	offsets := make([]int, 0, count)
	for i := 0; len(offsets) < count && i < maxOffsetIterations; i++ {
		offsets = append(offsets, intervals[i%l]+(i/l)*step)
	}
	return offsets
}

type planState struct {
	cfg      Config
	today    time.Time
	length   time.Duration
	occupied *occupancy
	seq      int
}

func newPlanState(cfg Config, busy []BusyInterval) *planState {
	return &planState{
		cfg:      cfg,
		today:    startOfDay(cfg.Now, cfg.Location),
		length:   cfg.sessionLength(),
		occupied: newOccupancy(busy),
	}
}

func (s *planState) place(dl plannedDeadline, offset int) (SuggestedSession, bool) {
	candidate := startOfDay(dl.due, s.cfg.Location).AddDate(0, 0, -offset)
	if candidate.Before(s.today) {
		return SuggestedSession{}, false
	}
	for back := 0; back <= backoffDays; back++ {
		day := candidate.AddDate(0, 0, -back)
		if day.Before(s.today) {
			break
		}
		if session, ok := s.tryDay(dl, day, offset+back); ok {
			return session, true
		}
	}
	return SuggestedSession{}, false
}

func (s *planState) tryDay(dl plannedDeadline, day time.Time, daysBefore int) (SuggestedSession, bool) {
	weekday := day.Weekday()
	for _, slot := range s.cfg.PreferredSlots {
		if !slot.allows(weekday) {
			continue
		}
		for hour := slot.StartHour; float64(hour)+s.cfg.SessionDurationHours <= float64(slot.EndHour); hour++ {
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, s.cfg.Location)
			end := start.Add(s.length)
			if start.Before(s.cfg.Now) || end.After(dl.due) {
				continue
			}
			if !s.occupied.isFree(start, end) {
				continue
			}
			s.occupied.reserve(start, end)
			s.seq++
			return SuggestedSession{
				ID:         fmt.Sprintf("session-%s-%d", dl.ID, s.seq),
				DeadlineID: dl.ID,
				Title:      fmt.Sprintf("Study: %s (%s)", dl.Subject, dl.Title),
				Start:      start,
				End:        end,
				Reason:     fmt.Sprintf("Before %s (%d days)", dl.Title, daysBefore),
				SlotLabel:  slot.Label,
				DaysBefore: daysBefore,
			}, true
		}
	}
	return SuggestedSession{}, false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
