package timelog

import (
	"log/slog"
	"time"
)

// Interval is the canonical in-memory form of a log record. It is derived on
// every read and never persisted.
type Interval struct {
	Start           time.Time
	End             time.Time
	DurationSeconds int64
	TaskID          string
	TaskText        string
	Project         string
	Section         string
	// SourceIndex is the record's position in the raw log, used to address
	// it for edit and delete.
	SourceIndex int
}

// Stats describes a normalization pass.
type Stats struct {
	Records  int
	Skipped  int
	Inverted int
}

// Normalize converts raw records into canonical intervals. Records that fit
// neither shape are skipped, not reported as errors: historical logs are
// expected to contain some of them.
func Normalize(raws []RawRecord) ([]Interval, Stats) {
	stats := Stats{Records: len(raws)}
	out := make([]Interval, 0, len(raws))
	for i, raw := range raws {
		rec, err := Parse(raw)
		if err != nil {
			stats.Skipped++
			slog.Debug("time log record skipped", "index", i, "error", err)
			continue
		}
		start, end := rec.Bounds()
		if end.Before(start) {
			stats.Inverted++
			slog.Warn("time log record ends before it starts", "index", i, "start", start, "end", end)
		}
		m := rec.Meta()
		out = append(out, Interval{
			Start:           start,
			End:             end,
			DurationSeconds: rec.Seconds(),
			TaskID:          m.TaskID,
			TaskText:        m.taskText(),
			Project:         m.project(),
			Section:         m.section(),
			SourceIndex:     i,
		})
	}
	return out, stats
}
