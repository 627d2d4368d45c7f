package timelog

import (
	"fmt"
	"time"
)

// Report is everything a report view renders for one period.
type Report struct {
	Selector  Selector
	Window    Window
	Intervals []Interval
	Result    Result
	Stats     Stats
}

// BuildReport resolves the window, normalizes raws, keeps the intervals that
// touch the window and aggregates them.
func BuildReport(raws []RawRecord, sel Selector, now time.Time, custom *DateRange) (Report, error) {
	w, err := Resolve(sel, now, custom)
	if err != nil {
		return Report{}, fmt.Errorf("resolve period: %w", err)
	}
	all, stats := Normalize(raws)
	filtered := w.Filter(all)
	return Report{
		Selector:  sel,
		Window:    w,
		Intervals: filtered,
		Result:    Aggregate(filtered, w.Grouping),
		Stats:     stats,
	}, nil
}

// FormatSeconds renders a duration as h:mm:ss.
func FormatSeconds(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, secs/3600, (secs%3600)/60, secs%60)
}

// FormatHM renders a duration as hh:mm.
func FormatHM(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/3600, (secs%3600)/60)
}
