package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tasktimer/internal/timelog"
)

type jsonExport struct {
	ExportedAt   string       `json:"exported_at"`
	Period       string       `json:"period"`
	From         string       `json:"from,omitempty"`
	To           string       `json:"to,omitempty"`
	Grouping     string       `json:"grouping"`
	TotalSeconds int64        `json:"total_seconds"`
	Total        string       `json:"total"`
	ByProject    []jsonBucket `json:"by_project"`
	ByTask       []jsonBucket `json:"by_task"`
	ByGroup      []jsonBucket `json:"by_group"`
	Count        int          `json:"count"`
	Entries      []jsonEntry  `json:"entries"`
	Skipped      int          `json:"skipped_records,omitempty"`
}

type jsonBucket struct {
	Label   string `json:"label"`
	Seconds int64  `json:"seconds"`
}

type jsonEntry struct {
	Index       int    `json:"index"`
	TaskID      string `json:"task_id,omitempty"`
	Task        string `json:"task"`
	Project     string `json:"project"`
	Section     string `json:"section"`
	StartTime   string `json:"start"`
	EndTime     string `json:"end"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

// ToJSON writes rep, with its summaries and filtered intervals, to path.
func ToJSON(rep timelog.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	if err := WriteJSON(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteJSON(out io.Writer, rep timelog.Report) error {
	export := jsonExport{
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Period:       rep.Selector.String(),
		Grouping:     rep.Window.Grouping.String(),
		TotalSeconds: rep.Result.TotalSeconds,
		Total:        timelog.FormatSeconds(rep.Result.TotalSeconds),
		ByProject:    buckets(rep.Result.ByProject),
		ByTask:       buckets(rep.Result.ByTask),
		ByGroup:      buckets(rep.Result.ByGroup),
		Count:        len(rep.Intervals),
		Entries:      []jsonEntry{},
		Skipped:      rep.Stats.Skipped,
	}
	if rep.Selector != timelog.AllTime {
		export.From = rep.Window.Start.Format(timelog.DateLayout)
		export.To = rep.Window.End.Format(timelog.DateLayout)
	}

	for _, iv := range rep.Intervals {
		export.Entries = append(export.Entries, jsonEntry{
			Index:       iv.SourceIndex,
			TaskID:      iv.TaskID,
			Task:        iv.TaskText,
			Project:     iv.Project,
			Section:     iv.Section,
			StartTime:   iv.Start.Format(time.RFC3339),
			EndTime:     iv.End.Format(time.RFC3339),
			DurationSec: iv.DurationSeconds,
			Duration:    timelog.FormatSeconds(iv.DurationSeconds),
		})
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func buckets(bs []timelog.Bucket) []jsonBucket {
	out := make([]jsonBucket, 0, len(bs))
	for _, b := range bs {
		out = append(out, jsonBucket{Label: b.Label, Seconds: b.Seconds})
	}
	return out
}
