package timelog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Selector names a report period.
type Selector int

const (
	Day Selector = iota
	Week
	Month
	CurrentWeek
	CurrentMonth
	Custom
	AllTime
)

// Selectors lists every selector in display order.
var Selectors = []Selector{Day, Week, Month, CurrentWeek, CurrentMonth, Custom, AllTime}

var selectorNames = map[Selector]string{
	Day:          "day",
	Week:         "week",
	Month:        "month",
	CurrentWeek:  "current-week",
	CurrentMonth: "current-month",
	Custom:       "custom",
	AllTime:      "all",
}

var selectorTitles = map[Selector]string{
	Day:          "Day",
	Week:         "Week",
	Month:        "Month",
	CurrentWeek:  "Current week",
	CurrentMonth: "Current month",
	Custom:       "Custom",
	AllTime:      "All time",
}

func (s Selector) String() string {
	if n, ok := selectorNames[s]; ok {
		return n
	}
	return fmt.Sprintf("selector(%d)", int(s))
}

// Title is the human-readable name of the selector.
func (s Selector) Title() string {
	if n, ok := selectorTitles[s]; ok {
		return n
	}
	return s.String()
}

// ParseSelector accepts the names produced by Selector.String.
func ParseSelector(name string) (Selector, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for sel, n := range selectorNames {
		if n == name {
			return sel, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", name)
}

// Grouping is the secondary bucketing of a report.
type Grouping int

const (
	GroupNone Grouping = iota
	GroupByDay
	GroupByWeek
)

func (g Grouping) String() string {
	switch g {
	case GroupByDay:
		return "by_day"
	case GroupByWeek:
		return "by_week"
	}
	return "none"
}

// DateLayout is the accepted custom range date format.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date format (YYYY-MM-DD)")
	ErrMissingRange = errors.New("custom period needs a date range")
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange parses two YYYY-MM-DD strings in loc.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	f, err := time.ParseInLocation(DateLayout, strings.TrimSpace(from), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("from %q: %w", from, ErrInvalidDate)
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(to), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("to %q: %w", to, ErrInvalidDate)
	}
	return DateRange{From: f, To: t}, nil
}

// Window is a resolved, inclusive report window.
type Window struct {
	Start    time.Time
	End      time.Time
	Grouping Grouping
}

// Includes reports whether iv touches the window at all; containment is not
// required.
func (w Window) Includes(iv Interval) bool {
	return !(iv.End.Before(w.Start) || iv.Start.After(w.End))
}

// Filter keeps the intervals the window includes, in their original order.
func (w Window) Filter(ivs []Interval) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if w.Includes(iv) {
			out = append(out, iv)
		}
	}
	return out
}

// Resolve computes the window for sel relative to now. custom is only read
// for the Custom selector.
func Resolve(sel Selector, now time.Time, custom *DateRange) (Window, error) {
	loc := now.Location()
	today := midnight(now)

	switch sel {
	case Day:
		return Window{Start: today, End: endOfDay(today), Grouping: GroupNone}, nil

	case Week, CurrentWeek:
		monday := today.AddDate(0, 0, -isoWeekday(today))
		return Window{Start: monday, End: endOfDay(monday.AddDate(0, 0, 6)), Grouping: GroupByDay}, nil

	case Month, CurrentMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		// Day 28 plus four days always lands in the next month; stepping
		// back by its day-of-month gives this month's last day.
		next := time.Date(now.Year(), now.Month(), 28, 0, 0, 0, 0, loc).AddDate(0, 0, 4)
		last := next.AddDate(0, 0, -next.Day())
		return Window{Start: first, End: endOfDay(last), Grouping: GroupByWeek}, nil

	case AllTime:
		return Window{
			Start:    time.Time{},
			End:      time.Date(9999, time.December, 31, 23, 59, 59, 999999999, loc),
			Grouping: GroupNone,
		}, nil

	case Custom:
		if custom == nil {
			return Window{}, ErrMissingRange
		}
		return Window{
			Start:    midnight(custom.From.In(loc)),
			End:      endOfDay(midnight(custom.To.In(loc))),
			Grouping: GroupNone,
		}, nil
	}
	return Window{}, fmt.Errorf("unknown period %v", sel)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is the last representable instant of day, so the whole 23:59:59
// second is inside the window.
func endOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999999, day.Location())
}

// isoWeekday is 0 for Monday through 6 for Sunday.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
