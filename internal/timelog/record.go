package timelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one element of the persisted time log. The log has no fixed
// schema; two historical shapes are understood (see ParseInterval and
// ParseLegacy).
type RawRecord map[string]any

// Unknown is the placeholder for a missing task, project or section.
const Unknown = "—"

// Record keys.
const (
	KeyStart           = "start"
	KeyEnd             = "end"
	KeyDurationSeconds = "duration_seconds"
	KeyTimestamp       = "timestamp"
	KeySeconds         = "seconds"
	KeyTaskID          = "task_id"
	KeyTaskText        = "task_text"
	KeyProject         = "project"
	KeySection         = "section"
)

// RecordTimeLayout is the layout used when writing start/end values.
const RecordTimeLayout = "2006-01-02T15:04:05"

// LegacyTimeLayout is the layout of the legacy "timestamp" field.
const LegacyTimeLayout = "2006-01-02 15:04:05"

var (
	ErrMissingField = errors.New("missing field")
	ErrBadTime      = errors.New("unparseable datetime")
	ErrBadNumber    = errors.New("unparseable integer")
)

// isoLayouts are tried in order when reading start/end values. Fractional
// seconds are accepted by time.Parse even when the layout omits them.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Meta is the descriptive part shared by both record shapes. Fields are
// empty when absent.
type Meta struct {
	TaskID   string
	TaskText string
	Project  string
	Section  string

	hasTaskText bool
	hasProject  bool
	hasSection  bool
}

// Label names the record for conflict listings.
func (m Meta) Label() string {
	switch {
	case m.TaskText != "":
		return m.TaskText
	case m.TaskID != "":
		return m.TaskID
	}
	return "?"
}

func (m Meta) taskText() string { return orUnknown(m.TaskText, m.hasTaskText) }
func (m Meta) project() string  { return orUnknown(m.Project, m.hasProject) }
func (m Meta) section() string  { return orUnknown(m.Section, m.hasSection) }

func orUnknown(v string, present bool) string {
	if !present {
		return Unknown
	}
	return v
}

// Record is a parsed RawRecord: either an IntervalRecord or a LegacyRecord.
type Record interface {
	Bounds() (start, end time.Time)
	Seconds() int64
	Meta() Meta
}

// IntervalRecord is the current shape: explicit start and end.
type IntervalRecord struct {
	Start, End time.Time
	// StoredDuration is the duration_seconds field when present.
	StoredDuration *int64
	meta           Meta
}

func (r IntervalRecord) Bounds() (time.Time, time.Time) { return r.Start, r.End }
func (r IntervalRecord) Meta() Meta                     { return r.meta }

// Seconds returns the stored duration verbatim, or end-start in whole
// seconds. The subtraction is not clamped.
func (r IntervalRecord) Seconds() int64 {
	if r.StoredDuration != nil {
		return *r.StoredDuration
	}
	return int64(r.End.Sub(r.Start) / time.Second)
}

// LegacyRecord is the snapshot shape: timestamp marks the end instant and
// seconds the length of the span before it.
type LegacyRecord struct {
	Timestamp time.Time
	Secs      int64
	meta      Meta
}

func (r LegacyRecord) Bounds() (time.Time, time.Time) {
	return r.Timestamp.Add(-time.Duration(r.Secs) * time.Second), r.Timestamp
}
func (r LegacyRecord) Seconds() int64 { return r.Secs }
func (r LegacyRecord) Meta() Meta     { return r.meta }

// ParseInterval validates the interval shape. Both start and end must be
// non-empty strings in an ISO-8601 form; duration_seconds is optional but
// must be an integer when present.
func ParseInterval(raw RawRecord) (IntervalRecord, error) {
	startStr, okS := nonEmptyString(raw, KeyStart)
	endStr, okE := nonEmptyString(raw, KeyEnd)
	if !okS || !okE {
		return IntervalRecord{}, fmt.Errorf("interval record: %w: start/end", ErrMissingField)
	}
	start, err := ParseISO(startStr)
	if err != nil {
		return IntervalRecord{}, fmt.Errorf("interval record start: %w", err)
	}
	end, err := ParseISO(endStr)
	if err != nil {
		return IntervalRecord{}, fmt.Errorf("interval record end: %w", err)
	}
	rec := IntervalRecord{Start: start, End: end, meta: metaOf(raw)}
	if v, ok := raw[KeyDurationSeconds]; ok {
		d, err := toInt64(v)
		if err != nil {
			return IntervalRecord{}, fmt.Errorf("interval record duration: %w", err)
		}
		rec.StoredDuration = &d
	}
	return rec, nil
}

// ParseLegacy validates the snapshot shape.
func ParseLegacy(raw RawRecord) (LegacyRecord, error) {
	ts, ok := nonEmptyString(raw, KeyTimestamp)
	secsRaw, hasSecs := raw[KeySeconds]
	if !ok || !hasSecs || secsRaw == nil {
		return LegacyRecord{}, fmt.Errorf("legacy record: %w: timestamp/seconds", ErrMissingField)
	}
	t, err := time.ParseInLocation(LegacyTimeLayout, ts, time.Local)
	if err != nil {
		return LegacyRecord{}, fmt.Errorf("legacy record timestamp %q: %w", ts, ErrBadTime)
	}
	secs, err := toInt64(secsRaw)
	if err != nil {
		return LegacyRecord{}, fmt.Errorf("legacy record seconds: %w", err)
	}
	return LegacyRecord{Timestamp: t, Secs: secs, meta: metaOf(raw)}, nil
}

// Parse tries the interval shape, then the legacy shape.
func Parse(raw RawRecord) (Record, error) {
	if raw == nil {
		return nil, fmt.Errorf("record is not an object: %w", ErrMissingField)
	}
	iv, ierr := ParseInterval(raw)
	if ierr == nil {
		return iv, nil
	}
	lg, lerr := ParseLegacy(raw)
	if lerr == nil {
		return lg, nil
	}
	return nil, fmt.Errorf("%w; %w", ierr, lerr)
}

// ParseRange returns the bounds and label of a raw record, or ok=false when
// neither shape parses.
func ParseRange(raw RawRecord) (start, end time.Time, label string, ok bool) {
	rec, err := Parse(raw)
	if err != nil {
		return time.Time{}, time.Time{}, "", false
	}
	start, end = rec.Bounds()
	return start, end, rec.Meta().Label(), true
}

// ParseISO parses the ISO-8601 datetime forms found in historical logs.
// Values without an offset are read as local wall-clock time; values with an
// offset are converted to local time.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(time.Local), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadTime)
}

func nonEmptyString(raw RawRecord, key string) (string, bool) {
	v, ok := raw[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func metaOf(raw RawRecord) Meta {
	var m Meta
	m.TaskText, m.hasTaskText = stringField(raw, KeyTaskText)
	m.Project, m.hasProject = stringField(raw, KeyProject)
	m.Section, m.hasSection = stringField(raw, KeySection)
	m.TaskID, _ = stringField(raw, KeyTaskID)
	return m
}

// stringField reports a key as present when it holds a string or a number.
func stringField(raw RawRecord, key string) (string, bool) {
	switch v := raw[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// toInt64 mirrors integer coercion of loosely typed JSON values: floats are
// truncated, numeric strings are accepted.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q: %w", n.String(), ErrBadNumber)
		}
		return truncate(f)
	case float64:
		return truncate(n)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", n, ErrBadNumber)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%v (%T): %w", v, v, ErrBadNumber)
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v: %w", f, ErrBadNumber)
	}
	return int64(f), nil
}
