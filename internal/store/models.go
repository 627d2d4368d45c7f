package store

import "time"

// DefaultProject is used for tasks created without a project.
const DefaultProject = "General"

// DateLayout is how task dates and deadlines are stored.
const DateLayout = "2006-01-02"

type Task struct {
	ID       string // uuid, written into time log records as task_id
	Text     string
	Project  string
	Section  string
	Date     time.Time // day the task was created
	Deadline *time.Time
	Note     string
	Done     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overdue reports whether an open task's deadline is before today.
func (t Task) Overdue(today time.Time) bool {
	if t.Done || t.Deadline == nil {
		return false
	}
	y, m, d := today.Date()
	return t.Deadline.Before(time.Date(y, m, d, 0, 0, 0, 0, t.Deadline.Location()))
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Text     string
	Project  string
	Section  string
	Deadline *time.Time
	Note     string
}

type Setting struct {
	Key   string
	Value string
}

// Autoscreen is the typed view of the auto-screenshot settings.
type Autoscreen struct {
	Enabled         bool
	IntervalMinutes int
}

// Interval returns the capture interval as a duration.
func (a Autoscreen) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}
