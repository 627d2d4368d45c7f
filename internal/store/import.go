package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// legacyDateLayout is the day.month.year form used by tasks.json files.
const legacyDateLayout = "02.01.2006"

type legacyTask struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Project  string `json:"project"`
	Section  string `json:"section"`
	Date     string `json:"date"`
	Deadline string `json:"deadline"`
	Note     string `json:"note"`
	Done     bool   `json:"done"`
}

// ParseLegacyTasks decodes a tasks.json array. Tasks without text are
// skipped; missing ids get a fresh uuid so time already logged by id is only
// linked when the file carried one.
func ParseLegacyTasks(data []byte) ([]Task, error) {
	var raw []legacyTask
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tasks file: %w", err)
	}
	tasks := make([]Task, 0, len(raw))
	for _, lt := range raw {
		text := strings.TrimSpace(lt.Text)
		if text == "" {
			continue
		}
		t := Task{
			ID:      lt.ID,
			Text:    text,
			Project: strings.TrimSpace(lt.Project),
			Section: strings.TrimSpace(lt.Section),
			Note:    strings.TrimSpace(lt.Note),
			Done:    lt.Done,
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Project == "" {
			t.Project = DefaultProject
		}
		t.Date = parseLegacyDate(lt.Date)
		if d := parseLegacyDate(lt.Deadline); !d.IsZero() {
			t.Deadline = &d
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func parseLegacyDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{legacyDateLayout, DateLayout} {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d
		}
	}
	return time.Time{}
}

// ImportTasks inserts tasks, replacing any existing task with the same id.
// It runs in one transaction and returns the number of tasks written.
func (s *Store) ImportTasks(tasks []Task) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stamp := time.Now().UTC().Format(time.RFC3339)
	for _, t := range tasks {
		date := t.Date
		if date.IsZero() {
			date = time.Now()
		}
		done := 0
		if t.Done {
			done = 1
		}
		_, err := tx.Exec(
			`INSERT INTO tasks (id, text, project, section, date, deadline, note, done, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   text = excluded.text, project = excluded.project, section = excluded.section,
			   deadline = excluded.deadline, note = excluded.note, done = excluded.done,
			   updated_at = excluded.updated_at`,
			t.ID, t.Text, t.Project, t.Section, date.Format(DateLayout), deadlineValue(t.Deadline), t.Note, done, stamp, stamp,
		)
		if err != nil {
			return 0, fmt.Errorf("import task %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(tasks), nil
}
