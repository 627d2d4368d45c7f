package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tasktimer/internal/timelog"
)

var csvHeader = []string{"Start", "End", "Duration (s)", "Duration", "Project", "Section", "Task", "Task ID"}

// ToCSV writes one row per interval to path.
func ToCSV(ivs []timelog.Interval, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, ivs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, ivs []timelog.Interval) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, iv := range ivs {
		row := []string{
			iv.Start.Format(time.RFC3339),
			iv.End.Format(time.RFC3339),
			strconv.FormatInt(iv.DurationSeconds, 10),
			timelog.FormatSeconds(iv.DurationSeconds),
			iv.Project,
			iv.Section,
			iv.TaskText,
			iv.TaskID,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
