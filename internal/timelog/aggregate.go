package timelog

import (
	"fmt"
	"sort"
)

// Bucket is one labelled total.
type Bucket struct {
	Label   string
	Seconds int64
}

// Result holds the totals of a report.
type Result struct {
	TotalSeconds int64
	// ByProject and ByTask are ordered by seconds, largest first; ties keep
	// first-occurrence order.
	ByProject []Bucket
	ByTask    []Bucket
	// ByGroup is ordered by label (by day) or by (year, week) (by week).
	ByGroup []Bucket
}

// ProjectSeconds returns ByProject as a map.
func (r Result) ProjectSeconds() map[string]int64 { return toMap(r.ByProject) }

// TaskSeconds returns ByTask as a map.
func (r Result) TaskSeconds() map[string]int64 { return toMap(r.ByTask) }

func toMap(bs []Bucket) map[string]int64 {
	m := make(map[string]int64, len(bs))
	for _, b := range bs {
		m[b.Label] = b.Seconds
	}
	return m
}

// DayLabelLayout formats by-day group labels.
const DayLabelLayout = "2006-01-02 (Mon)"

// Aggregate totals the intervals. Project and task totals are always
// computed; g only controls ByGroup.
func Aggregate(ivs []Interval, g Grouping) Result {
	var r Result
	for _, iv := range ivs {
		r.TotalSeconds += iv.DurationSeconds
	}

	r.ByProject = sumBy(ivs, func(iv Interval) string { return iv.Project })
	sortBySecondsDesc(r.ByProject)
	r.ByTask = sumBy(ivs, func(iv Interval) string { return iv.TaskText })
	sortBySecondsDesc(r.ByTask)

	switch g {
	case GroupByDay:
		r.ByGroup = sumBy(ivs, func(iv Interval) string { return iv.Start.Format(DayLabelLayout) })
		// The ISO date prefix makes label order chronological.
		sort.SliceStable(r.ByGroup, func(i, j int) bool { return r.ByGroup[i].Label < r.ByGroup[j].Label })
	case GroupByWeek:
		r.ByGroup = sumByWeek(ivs)
	default:
		r.ByGroup = []Bucket{}
	}
	return r
}

func sumBy(ivs []Interval, key func(Interval) string) []Bucket {
	out := []Bucket{}
	pos := make(map[string]int)
	for _, iv := range ivs {
		k := key(iv)
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, Bucket{Label: k})
		}
		out[i].Seconds += iv.DurationSeconds
	}
	return out
}

func sortBySecondsDesc(bs []Bucket) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Seconds > bs[j].Seconds })
}

type isoWeek struct{ year, week int }

func sumByWeek(ivs []Interval) []Bucket {
	totals := make(map[isoWeek]int64)
	var keys []isoWeek
	for _, iv := range ivs {
		y, w := iv.Start.ISOWeek()
		k := isoWeek{y, w}
		if _, ok := totals[k]; !ok {
			keys = append(keys, k)
		}
		totals[k] += iv.DurationSeconds
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})
	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Label: WeekLabel(k.year, k.week), Seconds: totals[k]})
	}
	return out
}

// WeekLabel formats a by-week group label.
func WeekLabel(year, week int) string {
	return fmt.Sprintf("Week %d (%d)", week, year)
}
