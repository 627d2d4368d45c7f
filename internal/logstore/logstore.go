package logstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/tasktimer/internal/timelog"
)

var (
	// ErrCorrupt means the log file exists but is not a JSON array.
	ErrCorrupt = errors.New("time log is corrupt")
	// ErrIndexOutOfRange means an edit addressed a position that no longer
	// exists; callers holding stale indexes must reload.
	ErrIndexOutOfRange = errors.New("time log index out of range")
)

// Store persists the time log as a single pretty-printed JSON array that is
// rewritten on every change.
//
// Store assumes it is the only writer. There is no locking: two processes
// that load and then append can lose each other's records.
type Store struct {
	path string
}

// New returns a store for the log file at path. The file is created on the
// first write.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the whole log. A missing file is an empty log. A corrupt file
// yields an empty log and an error wrapping ErrCorrupt, which callers treat as
// a recoverable notice. Elements that are not JSON objects load as nil
// records so positions stay stable.
func (s *Store) Load() ([]timelog.RawRecord, error) {
	elems, err := s.read()
	if err != nil {
		return []timelog.RawRecord{}, err
	}
	out := make([]timelog.RawRecord, len(elems))
	for i, e := range elems {
		if m, ok := e.(map[string]any); ok {
			out[i] = timelog.RawRecord(m)
		}
	}
	return out, nil
}

// Append adds rec at the end of the log. A corrupt log is moved aside and
// replaced by a fresh one holding only rec.
func (s *Store) Append(rec timelog.RawRecord) error {
	elems, err := s.readForWrite()
	if err != nil {
		return err
	}
	elems = append(elems, map[string]any(rec))
	if err := s.write(elems); err != nil {
		return fmt.Errorf("append time log record: %w", err)
	}
	return nil
}

// UpdateAt merges patch into the record at index.
func (s *Store) UpdateAt(index int, patch timelog.RawRecord) error {
	elems, err := s.read()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(elems) {
		return fmt.Errorf("update record %d of %d: %w", index, len(elems), ErrIndexOutOfRange)
	}
	m, ok := elems[index].(map[string]any)
	if !ok {
		return fmt.Errorf("update record %d: not an object", index)
	}
	for k, v := range patch {
		m[k] = v
	}
	if err := s.write(elems); err != nil {
		return fmt.Errorf("update record %d: %w", index, err)
	}
	return nil
}

// DeleteAt removes the record at index; later records shift down by one.
func (s *Store) DeleteAt(index int) error {
	elems, err := s.read()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(elems) {
		return fmt.Errorf("delete record %d of %d: %w", index, len(elems), ErrIndexOutOfRange)
	}
	elems = append(elems[:index], elems[index+1:]...)
	if err := s.write(elems); err != nil {
		return fmt.Errorf("delete record %d: %w", index, err)
	}
	return nil
}

func (s *Store) read() ([]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read time log: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if elems == nil {
		elems = []any{}
	}
	return elems, nil
}

func (s *Store) readForWrite() ([]any, error) {
	elems, err := s.read()
	if !errors.Is(err, ErrCorrupt) {
		return elems, err
	}
	backup := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
	if rerr := os.Rename(s.path, backup); rerr != nil {
		return nil, fmt.Errorf("move corrupt time log aside: %w", rerr)
	}
	slog.Warn("corrupt time log moved aside", "path", s.path, "backup", backup, "error", err)
	return []any{}, nil
}

// write replaces the log through a temp file in the same directory, so a
// failed write leaves the previous log intact.
func (s *Store) write(elems []any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(elems); err != nil {
		return fmt.Errorf("encode time log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace time log: %w", err)
	}
	slog.Debug("time log written", "path", s.path, "records", len(elems))
	return nil
}
