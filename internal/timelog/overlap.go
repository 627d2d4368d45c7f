package timelog

import "time"

// Overlap is an existing record that intersects a candidate interval.
type Overlap struct {
	Start time.Time
	End   time.Time
	Label string
	// Index is the record's position in the raw log.
	Index int
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect. Touching
// endpoints do not count.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FindOverlaps returns every parseable record in existing that intersects
// [start, end). It works on raw records because it runs before an append,
// not after a normalization pass. An empty result means no conflict; the
// caller decides whether to block.
func FindOverlaps(existing []RawRecord, start, end time.Time) []Overlap {
	var out []Overlap
	for i, raw := range existing {
		s, e, label, ok := ParseRange(raw)
		if !ok {
			continue
		}
		if Overlaps(start, end, s, e) {
			out = append(out, Overlap{Start: s, End: e, Label: label, Index: i})
		}
	}
	return out
}
