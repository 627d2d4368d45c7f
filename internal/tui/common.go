package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/tasktimer/internal/timelog"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewReports
	viewSettings
)

var viewNames = []string{"Tasks", "Reports", "Settings"}

// --- Messages ---

type timerStartedMsg struct {
	task string
}

type timerStoppedMsg struct {
	elapsed time.Duration
}

type entryChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// clockLayout is how the forms read and show times of day.
const clockLayout = "15:04"

// dateTimeLayout is how the forms read and show full timestamps.
const dateTimeLayout = timelog.DateLayout + " " + clockLayout

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(timelog.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return d, nil
}

func parseClock(s string) (time.Time, error) {
	t, err := time.ParseInLocation(clockLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be HH:MM")
	}
	return t, nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("use YYYY-MM-DD HH:MM")
	}
	return t, nil
}

// atClock combines the calendar day of day with the time of day of clock.
func atClock(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
}

func validateDate(s string) error     { _, err := parseDate(s); return err }
func validateClock(s string) error    { _, err := parseClock(s); return err }
func validateDateTime(s string) error { _, err := parseDateTime(s); return err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
