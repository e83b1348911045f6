package planner

import "time"

// Overlaps reports whether the half-open intervals [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching edges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type span struct {
	start time.Time
	end   time.Time
}

// occupancy holds every interval a run must avoid. It is owned by a single
// ComputeSuggestions call and never escapes it.
type occupancy struct {
	spans []span
}

func newOccupancy(busy []BusyInterval) *occupancy {
	spans := make([]span, 0, len(busy))
	for _, b := range busy {
		spans = append(spans, span{start: b.Start, end: b.End})
	}
	return &occupancy{spans: spans}
}

func (o *occupancy) isFree(start, end time.Time) bool {
	for _, s := range o.spans {
		if Overlaps(start, end, s.start, s.end) {
			return false
		}
	}
	return true
}

func (o *occupancy) reserve(start, end time.Time) {
	o.spans = append(o.spans, span{start: start, end: end})
}
