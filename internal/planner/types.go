package planner

import "time"

// Deadline is an exam or assessment that study sessions are planned against.
type Deadline struct {
	ID             string
	Title          string
	Subject        string
	Due            time.Time
	Priority       int // 1-5, higher is more urgent
	Difficulty     int // 1-5
	EstimatedHours float64
}

// BusyInterval is an existing commitment the planner must not overlap.
type BusyInterval struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// PreferredSlot is a recurring daily window searched when placing sessions.
// An empty Days set allows every weekday.
type PreferredSlot struct {
	StartHour int
	EndHour   int
	Days      []time.Weekday
	Label     string
}

func (s PreferredSlot) allows(day time.Weekday) bool {
	if len(s.Days) == 0 {
		return true
	}
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// SubjectOverride replaces the effort or priority of every deadline of a subject.
type SubjectOverride struct {
	EstimatedHours *float64
	Priority       *int
}

// SuggestedSession is a candidate study block produced by a planning run.
type SuggestedSession struct {
	ID         string
	DeadlineID string
	Title      string
	Start      time.Time
	End        time.Time
	Reason     string
	SlotLabel  string
	DaysBefore int
}

// DeadlineReport records how many sessions a deadline asked for and how many were placed.
type DeadlineReport struct {
	DeadlineID string
	Requested  int
	Placed     int
	PastDue    bool
}

// Result is the output of one planning run.
type Result struct {
	Sessions []SuggestedSession
	Report   []DeadlineReport
}

// Placed returns the total number of sessions placed across all deadlines.
func (r *Result) Placed() int {
	if r == nil {
		return 0
	}
	return len(r.Sessions)
}

// Requested returns the total number of sessions requested across all deadlines.
func (r *Result) Requested() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, item := range r.Report {
		total += item.Requested
	}
	return total
}
