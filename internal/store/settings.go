package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting keys.
const (
	KeyAutoscreenEnabled  = "autoscreen_enabled"
	KeyAutoscreenInterval = "autoscreen_interval"
	KeyDefaultProject     = "default_project"
	KeyHideDone           = "hide_done"
)

// Auto-screenshot defaults and bounds, in minutes.
const (
	DefaultAutoscreenInterval = 15
	MinAutoscreenInterval     = 1
	MaxAutoscreenInterval     = 120
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// GetBool reads a boolean setting, returning def when it is missing or
// unparseable.
func (s *Store) GetBool(key string, def bool) bool {
	v, err := s.GetSetting(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// AutoscreenSettings returns the auto-screenshot settings. Missing or invalid
// values fall back to the defaults.
func (s *Store) AutoscreenSettings() Autoscreen {
	a := Autoscreen{
		Enabled:         s.GetBool(KeyAutoscreenEnabled, true),
		IntervalMinutes: DefaultAutoscreenInterval,
	}
	if v, err := s.GetSetting(KeyAutoscreenInterval); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n >= MinAutoscreenInterval && n <= MaxAutoscreenInterval {
			a.IntervalMinutes = n
		}
	}
	return a
}

// SaveAutoscreenSettings validates and stores a.
func (s *Store) SaveAutoscreenSettings(a Autoscreen) error {
	if a.IntervalMinutes < MinAutoscreenInterval || a.IntervalMinutes > MaxAutoscreenInterval {
		return fmt.Errorf("autoscreen interval %d: must be %d..%d minutes",
			a.IntervalMinutes, MinAutoscreenInterval, MaxAutoscreenInterval)
	}
	if err := s.SetSetting(KeyAutoscreenEnabled, strconv.FormatBool(a.Enabled)); err != nil {
		return err
	}
	return s.SetSetting(KeyAutoscreenInterval, strconv.Itoa(a.IntervalMinutes))
}

// DefaultProjectName returns the project new tasks are filed under when none
// is given.
func (s *Store) DefaultProjectName() string {
	v, err := s.GetSetting(KeyDefaultProject)
	if err != nil || strings.TrimSpace(v) == "" {
		return DefaultProject
	}
	return strings.TrimSpace(v)
}
