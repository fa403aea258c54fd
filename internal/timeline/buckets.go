package timeline

import "sort"

// DateBuckets maps a UTC calendar day (YYYY-MM-DD) to the records created
// that day, in input order. Buckets drive badge counts and the explorer's
// grouped view; they impose no ordering of their own.
type DateBuckets map[string][]FileRecord

// GroupByDay buckets records by calendar day. Only records with a valid
// (>= 1970) timestamp participate; the rest are silently excluded from badge
// counts while remaining in the plain file list used elsewhere.
func GroupByDay(records []FileRecord) DateBuckets {
	buckets := make(DateBuckets)
	for _, r := range records {
		if !r.HasValidTime() {
			continue
		}
		key := r.DateKey()
		buckets[key] = append(buckets[key], r)
	}
	return buckets
}

// Counts returns the per-day record count for badge display.
func (b DateBuckets) Counts() map[string]int {
	counts := make(map[string]int, len(b))
	for key, records := range b {
		counts[key] = len(records)
	}
	return counts
}

// DayGroup is one calendar day's worth of files in a serialized grouped view.
type DayGroup struct {
	Date  string       `json:"date"`
	Files []FileRecord `json:"files"`
}

// SortedKeys returns the bucket day keys in ascending order. Consumers that
// need an ordering sort the keys; the map itself has none.
func (b DateBuckets) SortedKeys() []string {
	keys := make([]string, 0, len(b))
	for key := range b {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
