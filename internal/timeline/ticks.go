package timeline

import (
	"fmt"
	"time"
)

// Resolution is the time granularity used to generate axis ticks.
type Resolution string

const (
	ResolutionSecond Resolution = "second"
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDay    Resolution = "day"
	ResolutionMonth  Resolution = "month"
)

// Resolutions lists all resolutions in increasing granularity order, as
// offered by the resolution switcher.
var Resolutions = []Resolution{
	ResolutionSecond,
	ResolutionMinute,
	ResolutionHour,
	ResolutionDay,
	ResolutionMonth,
}

// ParseResolution converts a user-supplied string to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionSecond, ResolutionMinute, ResolutionHour, ResolutionDay, ResolutionMonth:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// Short returns the single-letter label used by the resolution switcher.
func (r Resolution) Short() string {
	switch r {
	case ResolutionSecond:
		return "s"
	case ResolutionMinute:
		return "m"
	case ResolutionHour:
		return "h"
	case ResolutionDay:
		return "d"
	case ResolutionMonth:
		return "M"
	}
	return "?"
}

// MaxTicks caps tick generation so a pathological bounds/resolution pairing
// (second ticks over years) terminates instead of exhausting memory. Hitting
// the cap is a bounded-degradation outcome surfaced via TickSet.Capped, not
// an error.
const MaxTicks = 10000

// TickSet is the generated tick sequence for one (bounds, resolution) pair.
type TickSet struct {
	Ticks  []time.Time
	Capped bool
}

// GenerateTicks produces the ascending tick timestamps covering bounds at the
// given resolution. Every tick lies within [Start, End]; there are no
// duplicates. Alignment per resolution: minute zeroes seconds, hour zeroes
// minutes and seconds, day zeroes the time of day, month additionally snaps
// to the first of the month; second iterates from Start as-is. A Start after
// End yields an empty set rather than looping.
func GenerateTicks(b TimeBounds, r Resolution) TickSet {
	start := b.Start.UTC()
	end := b.End.UTC()
	if start.After(end) {
		return TickSet{}
	}

	cur := alignDown(start, r)
	var out TickSet
	for i := 0; i < MaxTicks; i++ {
		if cur.After(end) {
			return out
		}
		// Alignment can land before Start; such ticks are out of range and
		// skipped rather than emitted.
		if !cur.Before(start) {
			out.Ticks = append(out.Ticks, cur)
		}
		cur = next(cur, r)
	}
	out.Capped = !cur.After(end)
	return out
}

func alignDown(t time.Time, r Resolution) time.Time {
	switch r {
	case ResolutionSecond:
		return t
	case ResolutionMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	case ResolutionHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case ResolutionDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case ResolutionMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func next(t time.Time, r Resolution) time.Time {
	switch r {
	case ResolutionSecond:
		return t.Add(time.Second)
	case ResolutionMinute:
		return t.Add(time.Minute)
	case ResolutionHour:
		return t.Add(time.Hour)
	case ResolutionDay:
		return t.AddDate(0, 0, 1)
	case ResolutionMonth:
		return t.AddDate(0, 1, 0)
	}
	return t.Add(time.Second)
}
