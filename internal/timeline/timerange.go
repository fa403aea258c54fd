package timeline

import "time"

// TimeBounds is the inclusive [Start, End] extent of the time axis.
// Invariant: Start never exceeds End. A zero-width range (Start == End) is
// the degenerate case used when no record has a usable timestamp.
type TimeBounds struct {
	Start time.Time
	End   time.Time
}

// Degenerate reports whether the bounds span zero width, in which case all
// position math collapses to the start of the axis.
func (b TimeBounds) Degenerate() bool {
	return !b.End.After(b.Start)
}

// TimeRange derives axis bounds from a record collection. Records without a
// valid (>= 1970) timestamp are excluded so sentinel dates cannot stretch the
// axis. When nothing valid remains, both bounds collapse to the current
// instant so downstream division stays defined. Total over any input,
// including the empty collection.
func TimeRange(records []FileRecord) TimeBounds {
	var start, end time.Time
	found := false
	for _, r := range records {
		if !r.HasValidTime() {
			continue
		}
		t := r.CreatedAt.UTC()
		if !found {
			start, end = t, t
			found = true
			continue
		}
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	if !found {
		now := time.Now().UTC()
		return TimeBounds{Start: now, End: now}
	}
	return TimeBounds{Start: start, End: end}
}
