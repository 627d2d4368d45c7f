package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tasktimer/internal/config"
	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/timelog"
	"github.com/sadopc/tasktimer/internal/tracker"
)

var fixedNow = time.Date(2024, 3, 15, 18, 0, 0, 0, time.Local)

type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(dir, "data")
	path := filepath.Join(dir, "config.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	return testEnv{dir: cfg.DataDir, configPath: path}
}

// run executes one command line against env and returns stdout and stderr.
func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	a := &app{now: func() time.Time { return fixedNow }}
	t.Cleanup(a.close)
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

// addTask creates a task and returns the short id printed for it.
func (e testEnv) addTask(t *testing.T, args ...string) string {
	t.Helper()
	out := e.mustRun(t, append([]string{"task", "add"}, args...)...)
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Added" {
		t.Fatalf("unexpected task add output: %q", out)
	}
	return fields[1]
}

func (e testEnv) writeLog(t *testing.T, content string) {
	t.Helper()
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.dir, "time_log.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestTaskAddListDone(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Write", "report", "-p", "Work", "-s", "Docs", "-d", "2024-03-10")
	env.addTask(t, "Plan sprint")

	out := env.mustRun(t, "task", "list")
	for _, want := range []string{"Write report", "Work", "Docs", "2024-03-10", "overdue", "Plan sprint", store.DefaultProject} {
		if !strings.Contains(out, want) {
			t.Fatalf("task list missing %q:\n%s", want, out)
		}
	}

	if out := env.mustRun(t, "task", "done", id); !strings.Contains(out, "done") {
		t.Fatalf("done output = %q", out)
	}
	if out := env.mustRun(t, "task", "list"); strings.Contains(out, "Write report") {
		t.Fatalf("completed task should be hidden:\n%s", out)
	}
	if out := env.mustRun(t, "task", "list", "--all"); !strings.Contains(out, "Write report") {
		t.Fatalf("--all should include completed tasks:\n%s", out)
	}

	if out := env.mustRun(t, "task", "done", id); !strings.Contains(out, "reopened") {
		t.Fatalf("second done should reopen: %q", out)
	}
}

func TestTaskRemove(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Temporary")
	env.mustRun(t, "task", "rm", id)
	if out := env.mustRun(t, "task", "list", "--all"); !strings.Contains(out, "No tasks.") {
		t.Fatalf("task should be gone:\n%s", out)
	}
	if _, _, err := env.run(t, "task", "rm", id); !errors.Is(err, errTaskNotFound) {
		t.Fatalf("expected errTaskNotFound, got %v", err)
	}
}

func TestTaskAddRequiresText(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(t, "task", "add", "   "); !errors.Is(err, store.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, _, err := env.run(t, "task", "add", "x", "-d", "15.03.2024"); err == nil {
		t.Fatal("expected error for a malformed deadline")
	}
}

func TestTaskImport(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "tasks.json")
	data := `[
		{"id": "11111111-aaaa", "text": "Imported one", "project": "Old", "date": "01.03.2024"},
		{"text": "Imported two", "done": true},
		{"text": "  "}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out := env.mustRun(t, "task", "import", path)
	if !strings.Contains(out, "Imported 2 task(s)") {
		t.Fatalf("import output = %q", out)
	}
	out = env.mustRun(t, "task", "list", "--all")
	if !strings.Contains(out, "Imported one") || !strings.Contains(out, "Imported two") || !strings.Contains(out, "11111111") {
		t.Fatalf("imported tasks missing:\n%s", out)
	}
}

func TestFindTaskByPrefix(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	_, err = s.ImportTasks([]store.Task{
		{ID: "abc-1", Text: "one", Project: "P"},
		{ID: "abc-2", Text: "two", Project: "P"},
		{ID: "xyz-1", Text: "three", Project: "P"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got, err := findTask(s, "abc-2"); err != nil || got.Text != "two" {
		t.Fatalf("exact id: %+v, %v", got, err)
	}
	if got, err := findTask(s, "xy"); err != nil || got.Text != "three" {
		t.Fatalf("unique prefix: %+v, %v", got, err)
	}
	if _, err := findTask(s, "abc"); !errors.Is(err, errAmbiguousTask) {
		t.Fatalf("expected errAmbiguousTask, got %v", err)
	}
	if _, err := findTask(s, "nope"); !errors.Is(err, errTaskNotFound) {
		t.Fatalf("expected errTaskNotFound, got %v", err)
	}
}

// ============================================================
// Time log
// ============================================================

func TestLogAddAndReport(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Write report", "-p", "Work")

	out := env.mustRun(t, "log", "add", id, "--date", "2024-03-15", "--start", "09:00", "--end", "10:30")
	if !strings.Contains(out, "Added 1:30:00") {
		t.Fatalf("log add output = %q", out)
	}

	out = env.mustRun(t, "report")
	for _, want := range []string{"Total: 1:30:00", "Work", "Write report", "2024-03-15"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}

	out = env.mustRun(t, "report", "week", "--format", "json")
	var rep struct {
		Period       string `json:"period"`
		TotalSeconds int64  `json:"total_seconds"`
		ByGroup      []struct {
			Label   string `json:"label"`
			Seconds int64  `json:"seconds"`
		} `json:"by_group"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report json: %v\n%s", err, out)
	}
	if rep.Period != "week" || rep.TotalSeconds != 5400 || len(rep.ByGroup) != 1 {
		t.Fatalf("week report = %+v", rep)
	}
}

func TestLogAddDefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Today")
	env.mustRun(t, "log", "add", id, "--start", "08:00", "--end", "08:45")
	if out := env.mustRun(t, "report", "day"); !strings.Contains(out, "Total: 0:45:00") {
		t.Fatalf("entry should land on the current day:\n%s", out)
	}
}

func TestLogAddRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Write report")
	env.mustRun(t, "log", "add", id, "--date", "2024-03-15", "--start", "09:00", "--end", "10:30")

	_, _, err := env.run(t, "log", "add", id, "--date", "2024-03-15", "--start", "10:00", "--end", "11:00")
	var overlap *tracker.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	if len(overlap.Overlaps) != 1 || overlap.Overlaps[0].Label != "Write report" {
		t.Fatalf("overlaps = %+v", overlap.Overlaps)
	}

	// Touching the end of the existing entry is fine.
	env.mustRun(t, "log", "add", id, "--date", "2024-03-15", "--start", "10:30", "--end", "11:00")
}

func TestLogAddRejectsFutureAndEmpty(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTask(t, "Later")

	if _, _, err := env.run(t, "log", "add", id, "--date", "2024-03-15", "--start", "17:30", "--end", "18:30"); !errors.Is(err, tracker.ErrFutureEntry) {
		t.Fatalf("expected ErrFutureEntry, got %v", err)
	}
	if _, _, err := env.run(t, "log", "add", id, "--date", "2024-03-15", "--start", "10:00", "--end", "10:00"); !errors.Is(err, tracker.ErrEmptyInterval) {
		t.Fatalf("expected ErrEmptyInterval, got %v", err)
	}
	if _, _, err := env.run(t, "log", "add", id, "--start", "9am", "--end", "10:00"); err == nil {
		t.Fatal("expected error for a malformed start")
	}
}

func TestLogEditAndRemove(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, `[
		{"task_text": "A", "project": "P", "start": "2024-03-15T09:00:00", "end": "2024-03-15T10:00:00", "duration_seconds": 3600},
		{"task_text": "B", "project": "P", "start": "2024-03-14T09:00:00", "end": "2024-03-14T09:15:00", "duration_seconds": 900}
	]`)

	env.mustRun(t, "log", "edit", "0", "--start", "2024-03-15 08:00", "--end", "2024-03-15 08:30")
	out := env.mustRun(t, "log", "list")
	if !strings.Contains(out, "0:30:00") || !strings.Contains(out, "2 entries, 0:45:00") {
		t.Fatalf("edited list:\n%s", out)
	}

	env.mustRun(t, "log", "rm", "0")
	out = env.mustRun(t, "log", "list")
	if !strings.Contains(out, "1 entries, 0:15:00") || strings.Contains(out, " A ") {
		t.Fatalf("after remove:\n%s", out)
	}

	if _, _, err := env.run(t, "log", "rm", "5"); err == nil {
		t.Fatal("expected error for an index past the end")
	}
	if _, _, err := env.run(t, "log", "rm", "-1"); err == nil {
		t.Fatal("expected error for a negative index")
	}
}

func TestLogListEmpty(t *testing.T) {
	env := newTestEnv(t)
	if out := env.mustRun(t, "log", "list"); !strings.Contains(out, "No entries.") {
		t.Fatalf("empty list output = %q", out)
	}
}

// ============================================================
// Reports
// ============================================================

func TestReportCustomRange(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, `[
		{"task_text": "A", "project": "P", "start": "2024-03-01T09:00:00", "end": "2024-03-01T10:00:00"},
		{"task_text": "B", "project": "Q", "start": "2024-02-20T09:00:00", "end": "2024-02-20T09:30:00"}
	]`)

	out := env.mustRun(t, "report", "--from", "2024-03-01", "--to", "2024-03-31")
	if !strings.Contains(out, "Total: 1:00:00") || strings.Contains(out, "Q") {
		t.Fatalf("custom report:\n%s", out)
	}
	out = env.mustRun(t, "report", "custom", "--from", "2024-02-01", "--to", "2024-03-31")
	if !strings.Contains(out, "Total: 1:30:00") {
		t.Fatalf("explicit custom report:\n%s", out)
	}

	if _, _, err := env.run(t, "report", "custom"); !errors.Is(err, timelog.ErrMissingRange) {
		t.Fatalf("expected ErrMissingRange, got %v", err)
	}
	if _, _, err := env.run(t, "report", "week", "--from", "2024-03-01", "--to", "2024-03-02"); err == nil {
		t.Fatal("a range with a fixed period should be rejected")
	}
	if _, _, err := env.run(t, "report", "--from", "2024-03-01"); !errors.Is(err, timelog.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestReportUnknownPeriodAndFormat(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(t, "report", "fortnight"); err == nil {
		t.Fatal("expected error for an unknown period")
	}
	if _, _, err := env.run(t, "report", "--format", "xml"); err == nil {
		t.Fatal("expected error for an unknown format")
	}
}

func TestReportCorruptLog(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, "{not json")

	out, errOut, err := env.run(t, "report", "all")
	if err != nil {
		t.Fatalf("a corrupt log should still report: %v", err)
	}
	if !strings.Contains(out, "Total: 0:00:00") {
		t.Fatalf("corrupt log should report as empty:\n%s", out)
	}
	if !strings.Contains(errOut, "warning") {
		t.Fatalf("expected a warning on stderr, got %q", errOut)
	}
}

func TestReportSkippedRecordsWarning(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, `[{"task_text": "A", "start": "2024-03-15T09:00:00", "end": "2024-03-15T10:00:00"}, {"bogus": 1}, 7]`)
	_, errOut, err := env.run(t, "report")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "skipped 2") {
		t.Fatalf("expected skipped warning, got %q", errOut)
	}
}

// ============================================================
// Export
// ============================================================

func TestExportCSVToFile(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, `[{"task_text": "A", "project": "P", "start": "2024-03-15T09:00:00", "end": "2024-03-15T10:00:00"}]`)
	path := filepath.Join(t.TempDir(), "out.csv")

	_, errOut, err := env.run(t, "export", "csv", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "Exported 1 entries") {
		t.Fatalf("stderr = %q", errOut)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1][2] != "3600" {
		t.Fatalf("csv = %v", records)
	}
}

func TestExportJSONToStdout(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, `[{"task_text": "A", "project": "P", "start": "2024-03-01T09:00:00", "end": "2024-03-01T10:00:00"}]`)
	out := env.mustRun(t, "export", "json", "month")
	var rep struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if rep.Count != 1 {
		t.Fatalf("count = %d", rep.Count)
	}
}

// ============================================================
// Screenshots
// ============================================================

func TestScreenshotArchive(t *testing.T) {
	env := newTestEnv(t)
	shot := filepath.Join(env.dir, "screenshots", "Work", "2024-02-10_09-00-00.jpg")
	if err := os.MkdirAll(filepath.Dir(shot), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shot, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := env.mustRun(t, "screenshot", "archive")
	if !strings.Contains(out, "Archived 1 file(s)") {
		t.Fatalf("archive output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "screenshots", "archives", "2024-02.zip")); err != nil {
		t.Fatal(err)
	}
	if out := env.mustRun(t, "screenshot", "archive"); !strings.Contains(out, "Nothing to archive for 2024-02") {
		t.Fatalf("second run output = %q", out)
	}
}

// ============================================================
// Config
// ============================================================

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "config", "show")
	for _, want := range []string{"jpeg_quality: 70", "archive_after_day: 10", "time_log.json", env.configPath} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(t, "config", "init"); err == nil {
		t.Fatal("init must not overwrite without --force")
	}
	env.mustRun(t, "config", "init", "--force")

	fresh := testEnv{dir: env.dir, configPath: filepath.Join(t.TempDir(), "sub", "config.yaml")}
	out := fresh.mustRun(t, "config", "init")
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("init output = %q", out)
	}
	if _, err := config.Load(fresh.configPath); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("jpeg_quality: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := testEnv{configPath: path}
	if _, _, err := env.run(t, "task", "list"); err == nil {
		t.Fatal("expected validation error")
	}
}
