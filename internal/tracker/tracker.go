// Package tracker records work intervals into the time log and answers
// report queries against it.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sadopc/tasktimer/internal/logstore"
	"github.com/sadopc/tasktimer/internal/timelog"
)

var (
	ErrEmptyInterval = errors.New("end must be after start")
	ErrFutureEntry   = errors.New("start and end must not be in the future")
)

// DefaultOverlapLimit is how many conflicts OverlapError lists by default.
const DefaultOverlapLimit = 10

// OverlapError is returned when a manual entry intersects existing records.
// Overlaps holds every conflict; Error lists at most Limit of them.
type OverlapError struct {
	Overlaps []timelog.Overlap
	Limit    int
}

func (e *OverlapError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "overlaps %d existing record(s):", len(e.Overlaps))
	shown := e.Overlaps
	if e.Limit > 0 && len(shown) > e.Limit {
		shown = shown[:e.Limit]
	}
	for _, o := range shown {
		fmt.Fprintf(&b, "\n  • %s - %s (%s)", o.Start.Format("2006-01-02 15:04"), o.End.Format("15:04"), o.Label)
	}
	if rest := len(e.Overlaps) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n  ...and %d more", rest)
	}
	return b.String()
}

// Log is the persistence the tracker needs. *logstore.Store implements it.
type Log interface {
	Load() ([]timelog.RawRecord, error)
	Append(rec timelog.RawRecord) error
	UpdateAt(index int, patch timelog.RawRecord) error
	DeleteAt(index int) error
}

// Task identifies what an interval was spent on.
type Task struct {
	ID      string
	Text    string
	Project string
	Section string
}

type Tracker struct {
	log          Log
	now          func() time.Time
	overlapLimit int
}

func New(log Log) *Tracker {
	return &Tracker{log: log, now: time.Now, overlapLimit: DefaultOverlapLimit}
}

// WithClock replaces the clock used for future checks and period resolution.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// WithOverlapLimit sets how many conflicts an OverlapError lists.
func (t *Tracker) WithOverlapLimit(n int) *Tracker {
	if n > 0 {
		t.overlapLimit = n
	}
	return t
}

func (t *Tracker) Now() time.Time { return t.now() }

// NewRecord builds the interval record written for task. Times are truncated
// to whole seconds.
func NewRecord(task Task, start, end time.Time) timelog.RawRecord {
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	return timelog.RawRecord{
		timelog.KeyTaskID:          task.ID,
		timelog.KeyTaskText:        task.Text,
		timelog.KeyProject:         task.Project,
		timelog.KeySection:         task.Section,
		timelog.KeyStart:           start.Format(timelog.RecordTimeLayout),
		timelog.KeyEnd:             end.Format(timelog.RecordTimeLayout),
		timelog.KeyDurationSeconds: int64(end.Sub(start) / time.Second),
	}
}

// AddManual appends a hand-entered interval after checking that it is
// non-empty, lies in the past and does not intersect any recorded interval.
func (t *Tracker) AddManual(task Task, start, end time.Time) error {
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	if !end.After(start) {
		return ErrEmptyInterval
	}
	now := t.now()
	if start.After(now) || end.After(now) {
		return ErrFutureEntry
	}

	existing, err := t.log.Load()
	if err != nil && !errors.Is(err, logstore.ErrCorrupt) {
		return fmt.Errorf("load time log: %w", err)
	}
	if overlaps := timelog.FindOverlaps(existing, start, end); len(overlaps) > 0 {
		return &OverlapError{Overlaps: overlaps, Limit: t.overlapLimit}
	}

	if err := t.log.Append(NewRecord(task, start, end)); err != nil {
		return fmt.Errorf("add manual entry: %w", err)
	}
	slog.Info("manual entry added", "task", task.Text, "start", start, "end", end)
	return nil
}

// RecordTimer appends the interval measured by a running timer. Timer
// intervals are not checked for overlaps.
func (t *Tracker) RecordTimer(task Task, start, end time.Time) error {
	rec := NewRecord(task, start, end)
	if err := t.log.Append(rec); err != nil {
		return fmt.Errorf("record timer: %w", err)
	}
	slog.Info("timer entry recorded", "task", task.Text, "seconds", rec[timelog.KeyDurationSeconds])
	return nil
}

// Edit rewrites the bounds of the record at index. The stored duration is
// recomputed and never negative.
func (t *Tracker) Edit(index int, start, end time.Time) error {
	start = start.Truncate(time.Second)
	end = end.Truncate(time.Second)
	secs := max(int64(end.Sub(start)/time.Second), 0)
	patch := timelog.RawRecord{
		timelog.KeyStart:           start.Format(timelog.RecordTimeLayout),
		timelog.KeyEnd:             end.Format(timelog.RecordTimeLayout),
		timelog.KeyDurationSeconds: secs,
	}
	if err := t.log.UpdateAt(index, patch); err != nil {
		return fmt.Errorf("edit entry: %w", err)
	}
	return nil
}

func (t *Tracker) Delete(index int) error {
	if err := t.log.DeleteAt(index); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Intervals returns every normalized interval in the log. A corrupt log is
// reported alongside an empty result.
func (t *Tracker) Intervals() ([]timelog.Interval, timelog.Stats, error) {
	raws, err := t.log.Load()
	if err != nil && !errors.Is(err, logstore.ErrCorrupt) {
		return nil, timelog.Stats{}, fmt.Errorf("load time log: %w", err)
	}
	ivs, stats := timelog.Normalize(raws)
	return ivs, stats, err
}

// Report builds the report for sel at the tracker's current time. When the
// log is corrupt the returned report is valid and empty and the error wraps
// logstore.ErrCorrupt.
func (t *Tracker) Report(sel timelog.Selector, custom *timelog.DateRange) (timelog.Report, error) {
	raws, loadErr := t.log.Load()
	if loadErr != nil && !errors.Is(loadErr, logstore.ErrCorrupt) {
		return timelog.Report{}, fmt.Errorf("load time log: %w", loadErr)
	}
	rep, err := timelog.BuildReport(raws, sel, t.now(), custom)
	if err != nil {
		return timelog.Report{}, err
	}
	return rep, loadErr
}
