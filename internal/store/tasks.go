package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyText is returned when a task is saved without text.
var ErrEmptyText = errors.New("task text is required")

const taskColumns = `id, text, project, section, date, deadline, note, done, created_at, updated_at`

func normalizeInput(in TaskInput) (TaskInput, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return in, ErrEmptyText
	}
	in.Project = strings.TrimSpace(in.Project)
	if in.Project == "" {
		in.Project = DefaultProject
	}
	in.Section = strings.TrimSpace(in.Section)
	in.Note = strings.TrimSpace(in.Note)
	return in, nil
}

func deadlineValue(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(DateLayout)
}

// CreateTask inserts a new open task dated today.
func (s *Store) CreateTask(in TaskInput) (*Task, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := time.Now()
	stamp := now.UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO tasks (id, text, project, section, date, deadline, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Text, in.Project, in.Section, now.Format(DateLayout), deadlineValue(in.Deadline), in.Note, stamp, stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// ListTasks returns tasks in creation order, optionally without done ones.
func (s *Store) ListTasks(hideDone bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if hideDone {
		query += ` WHERE done = 0`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(id string, in TaskInput) error {
	in, err := normalizeInput(in)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE tasks SET text = ?, project = ?, section = ?, deadline = ?, note = ?, updated_at = ? WHERE id = ?`,
		in.Text, in.Project, in.Section, deadlineValue(in.Deadline), in.Note, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return requireOne(res, id)
}

// ToggleDone flips the done flag and returns the new value.
func (s *Store) ToggleDone(id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE tasks SET done = 1 - done, updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return false, fmt.Errorf("toggle task %s: %w", id, err)
	}
	if err := requireOne(res, id); err != nil {
		return false, err
	}
	var done int
	if err := s.db.QueryRow(`SELECT done FROM tasks WHERE id = ?`, id).Scan(&done); err != nil {
		return false, fmt.Errorf("toggle task %s: %w", id, err)
	}
	return done == 1, nil
}

// DeleteTask removes a task. Time already logged against it is kept.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return requireOne(res, id)
}

func requireOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*Task, error) {
	var t Task
	var date, createdAt, updatedAt string
	var deadline sql.NullString
	var done int
	if err := r.Scan(&t.ID, &t.Text, &t.Project, &t.Section, &date, &deadline, &t.Note, &done, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Done = done == 1
	t.Date, _ = time.ParseInLocation(DateLayout, date, time.Local)
	if deadline.Valid && deadline.String != "" {
		if d, err := time.ParseInLocation(DateLayout, deadline.String, time.Local); err == nil {
			t.Deadline = &d
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}
