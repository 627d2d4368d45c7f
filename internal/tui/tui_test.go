package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tasktimer/internal/logstore"
	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/timelog"
	"github.com/sadopc/tasktimer/internal/tracker"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	store   *store.Store
	log     *logstore.Store
	tracker *tracker.Tracker
	active  *tracker.Active
	clock   *testClock
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 15, 14, 0, 0, 0, time.Local)}
	log := logstore.New(filepath.Join(t.TempDir(), "time_log.json"))
	return testEnv{
		store:   newTestStore(t),
		log:     log,
		tracker: tracker.New(log).WithClock(clock.Now),
		active:  &tracker.Active{},
		clock:   clock,
	}
}

func (e testEnv) app() App {
	return NewApp(Deps{Store: e.store, Tracker: e.tracker, Active: e.active})
}

func (e testEnv) records(t *testing.T) []timelog.RawRecord {
	t.Helper()
	recs, err := e.log.Load()
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	return recs
}

func (e testEnv) writeLog(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.log.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e testEnv) createTask(t *testing.T, text, project string) store.Task {
	t.Helper()
	task, err := e.store.CreateTask(store.TaskInput{Text: text, Project: project})
	if err != nil {
		t.Fatal(err)
	}
	return *task
}

// runCmd executes cmd and any batched commands, collecting their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedTasks(t *testing.T, m tasksModel) tasksModel {
	t.Helper()
	for _, msg := range runCmd(m.refresh()) {
		m, _ = m.update(msg)
	}
	return m
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartStop(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	if tm.running() {
		t.Fatal("timer should start stopped")
	}

	task := tracker.Task{ID: "t-1", Text: "Write", Project: "Work"}
	if err := tm.start(task); err != nil {
		t.Fatal(err)
	}
	if !tm.running() || tm.paused() {
		t.Fatal("timer should be running after start")
	}
	if env.active.Project() != "Work" {
		t.Fatalf("active project = %q", env.active.Project())
	}

	env.clock.advance(90 * time.Second)
	if got := tm.currentElapsed(); got != 90*time.Second {
		t.Fatalf("elapsed = %v", got)
	}
	total, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if total != 90*time.Second {
		t.Fatalf("total = %v, want 90s", total)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
	if _, _, running := env.active.Get(); running {
		t.Fatal("active task should be cleared")
	}

	recs := env.records(t)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0][timelog.KeyTaskID] != "t-1" || recs[0][timelog.KeyStart] != "2024-03-15T14:00:00" {
		t.Fatalf("record = %v", recs[0])
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)

	total, err := tm.stop()
	if err != nil || total != 0 {
		t.Fatalf("stop on stopped timer = %v, %v", total, err)
	}
	if len(env.records(t)) != 0 {
		t.Fatal("nothing should be recorded")
	}
}

func TestTimerPauseResume(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	tm.start(tracker.Task{Text: "Write"})

	env.clock.advance(time.Minute)
	if err := tm.pause(); err != nil {
		t.Fatal(err)
	}
	if !tm.paused() || !tm.running() {
		t.Fatal("timer should be paused")
	}
	if env.active.Project() != "" {
		t.Fatal("a paused timer is not active")
	}
	if len(env.records(t)) != 1 {
		t.Fatal("pausing should record the finished stretch")
	}

	env.clock.advance(5 * time.Minute)
	if got := tm.currentElapsed(); got != time.Minute {
		t.Fatalf("elapsed while paused = %v, want 1m", got)
	}

	tm.resume()
	env.clock.advance(30 * time.Second)
	if got := tm.currentElapsed(); got != 90*time.Second {
		t.Fatalf("elapsed after resume = %v, want 90s", got)
	}
	total, _ := tm.stop()
	if total != 90*time.Second {
		t.Fatalf("total = %v", total)
	}

	recs := env.records(t)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1][timelog.KeyStart] != "2024-03-15T14:06:00" {
		t.Fatalf("second stretch starts at %v", recs[1][timelog.KeyStart])
	}
}

func TestTimerStopWhilePaused(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	tm.start(tracker.Task{Text: "Write"})
	env.clock.advance(time.Minute)
	tm.pause()
	env.clock.advance(time.Hour)

	total, err := tm.stop()
	if err != nil || total != time.Minute {
		t.Fatalf("stop while paused = %v, %v", total, err)
	}
	if len(env.records(t)) != 1 {
		t.Fatal("stopping a paused timer must not record the pause")
	}
}

func TestTimerPauseWhenNotRunning(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	if err := tm.pause(); err != nil {
		t.Fatal(err)
	}
	if tm.paused() {
		t.Fatal("should not pause a stopped timer")
	}
}

func TestTimerResumeWhenNotPaused(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	tm.start(tracker.Task{Text: "Write"})
	tm.resume()
	if tm.paused() || tm.state != timerRunning {
		t.Fatal("resume on a running timer should be a no-op")
	}
}

func TestTimerToggle(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	tm.start(tracker.Task{Text: "Write"})
	env.clock.advance(time.Second)

	tm.toggle()
	if !tm.paused() {
		t.Fatal("toggle should pause")
	}
	tm.toggle()
	if tm.paused() {
		t.Fatal("toggle should resume")
	}

	stopped := newTimerModel(env.tracker, env.active)
	stopped.toggle()
	if stopped.running() {
		t.Fatal("toggle on a stopped timer should be a no-op")
	}
}

func TestTimerStartSwitchesTask(t *testing.T) {
	env := newTestEnv(t)
	tm := newTimerModel(env.tracker, env.active)
	tm.start(tracker.Task{ID: "a", Text: "A", Project: "P1"})
	env.clock.advance(10 * time.Minute)
	tm.start(tracker.Task{ID: "b", Text: "B", Project: "P2"})

	recs := env.records(t)
	if len(recs) != 1 || recs[0][timelog.KeyTaskID] != "a" {
		t.Fatalf("switching tasks should record the first: %v", recs)
	}
	if env.active.Project() != "P2" {
		t.Fatalf("active project = %q", env.active.Project())
	}
	if tm.currentElapsed() != 0 {
		t.Fatal("a new session starts from zero")
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0.0h"},
		{3600, "1.0h"},
		{5400, "1.5h"},
		{7200, "2.0h"},
	}
	for _, tt := range tests {
		got := formatHours(tt.secs)
		if got != tt.want {
			t.Errorf("formatHours(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := parseDate("2024-02-30"); err == nil {
		t.Error("2024-02-30 is not a date")
	}
	if err := validateClock("9:5"); err == nil {
		t.Error("9:5 is not HH:MM")
	}
	if err := validateDateTime("2024-03-15 09:30"); err != nil {
		t.Errorf("valid date-time rejected: %v", err)
	}

	day, _ := parseDate("2024-03-15")
	clock, _ := parseClock("09:30")
	got := atClock(day, clock)
	want := time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("atClock = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"longer text", 6, "longe…"},
		{"Задача", 4, "Зад…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 3 {
		t.Fatalf("expected 3 view names, got %d", len(viewNames))
	}
	if viewNames[viewTasks] != "Tasks" || viewNames[viewReports] != "Reports" || viewNames[viewSettings] != "Settings" {
		t.Fatalf("view names = %v", viewNames)
	}
}

// ============================================================
// Tasks view
// ============================================================

func TestTasksRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "First", "Work")
	done := env.createTask(t, "Finished", "Work")
	env.store.ToggleDone(done.ID)

	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	if len(m.tasks) != 1 || m.tasks[0].Text != "First" {
		t.Fatalf("tasks = %+v (completed should be hidden by default)", m.tasks)
	}
	if len(m.projects) != 1 || m.projects[0] != "Work" {
		t.Fatalf("projects = %v", m.projects)
	}
}

func TestTasksStartStopKeys(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Write", "Work")
	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))

	m, cmd := m.update(keyMsg("s"))
	if !m.isRunning() {
		t.Fatal("s should start the timer")
	}
	var started bool
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(timerStartedMsg); ok {
			started = true
		}
	}
	if !started {
		t.Fatal("expected timerStartedMsg")
	}

	env.clock.advance(20 * time.Minute)
	m, cmd = m.update(keyMsg("x"))
	if m.isRunning() {
		t.Fatal("x should stop the timer")
	}
	var stopped *timerStoppedMsg
	for _, msg := range runCmd(cmd) {
		if s, ok := msg.(timerStoppedMsg); ok {
			stopped = &s
		}
		m, _ = m.update(msg)
	}
	if stopped == nil || stopped.elapsed != 20*time.Minute {
		t.Fatalf("timerStoppedMsg = %+v", stopped)
	}
	if m.todaySeconds != 1200 {
		t.Fatalf("today total = %d, want 1200", m.todaySeconds)
	}
}

func TestTasksPauseKey(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Write", "Work")
	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	m, _ = m.update(keyMsg("s"))
	env.clock.advance(time.Minute)

	m, _ = m.update(keyMsg(" "))
	if !m.isPaused() {
		t.Fatal("space should pause")
	}
	m, _ = m.update(keyMsg(" "))
	if m.isPaused() || !m.isRunning() {
		t.Fatal("space should resume")
	}
}

func TestTasksStartWithoutTasks(t *testing.T) {
	env := newTestEnv(t)
	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	m, cmd := m.update(keyMsg("s"))
	if m.isRunning() {
		t.Fatal("nothing to start")
	}
	msgs := runCmd(cmd)
	if len(msgs) != 1 || !msgs[0].(statusMsg).isError {
		t.Fatalf("expected an error status, got %v", msgs)
	}
}

func TestTasksAddManual(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, "Write", "Work")
	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	m.editingID = task.ID

	m, cmd := m.addManual(taskFields{date: "2024-03-15", start: "09:00", end: "10:00"})
	if m.notice != "" {
		t.Fatalf("unexpected notice: %s", m.notice)
	}
	var changed bool
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(entryChangedMsg); ok {
			changed = true
		}
	}
	if !changed {
		t.Fatal("expected entryChangedMsg")
	}
	recs := env.records(t)
	if len(recs) != 1 || recs[0][timelog.KeyTaskText] != "Write" || recs[0][timelog.KeyProject] != "Work" {
		t.Fatalf("records = %v", recs)
	}

	m, cmd = m.addManual(taskFields{date: "2024-03-15", start: "09:30", end: "10:30"})
	if !strings.Contains(m.notice, "overlaps 1 existing record") || !strings.Contains(m.notice, "Write") {
		t.Fatalf("overlap notice = %q", m.notice)
	}
	if msgs := runCmd(cmd); len(msgs) != 1 || !msgs[0].(statusMsg).isError {
		t.Fatalf("expected an error status, got %v", msgs)
	}
	if len(env.records(t)) != 1 {
		t.Fatal("an overlapping entry must not be written")
	}

	m, _ = m.update(keyMsg("j"))
	if m.notice != "" {
		t.Fatal("the notice clears on the next key")
	}

	_, cmd = m.addManual(taskFields{date: "2024-03-15", start: "15:00", end: "16:00"})
	msgs := runCmd(cmd)
	if len(msgs) != 1 || !strings.Contains(msgs[0].(statusMsg).text, "future") {
		t.Fatalf("expected a future-entry error, got %v", msgs)
	}
}

func TestTasksHideDoneToggle(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Open", "")
	done := env.createTask(t, "Closed", "")
	env.store.ToggleDone(done.ID)

	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	if !m.hideDone || len(m.tasks) != 1 {
		t.Fatal("completed tasks are hidden by default")
	}
	m, cmd := m.update(keyMsg("v"))
	for _, msg := range runCmd(cmd) {
		m, _ = m.update(msg)
	}
	if m.hideDone || len(m.tasks) != 2 {
		t.Fatalf("v should show completed tasks, got %d", len(m.tasks))
	}
	if env.store.GetBool(store.KeyHideDone, true) {
		t.Fatal("the preference should be saved")
	}
}

func TestTasksViewRenders(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Write", "Work")
	m := loadedTasks(t, newTasksModel(env.store, env.tracker, nil, env.active))
	m.setSize(120, 40)
	out := m.view()
	if !strings.Contains(out, "Write") || !strings.Contains(out, "STOPPED") {
		t.Fatalf("tasks view:\n%s", out)
	}
	m, _ = m.update(keyMsg("s"))
	if out := m.view(); !strings.Contains(out, "RECORDING") {
		t.Fatalf("running view:\n%s", out)
	}
}

// ============================================================
// Reports view
// ============================================================

const sampleLog = `[
	{"task_text": "A", "project": "P1", "start": "2024-03-15T09:00:00", "end": "2024-03-15T10:30:00", "duration_seconds": 5400},
	{"task_text": "B", "project": "P2", "start": "2024-03-15T11:00:00", "end": "2024-03-15T11:30:00"},
	{"task_text": "C", "project": "P1", "start": "2024-03-12T11:00:00", "end": "2024-03-12T12:00:00"}
]`

func loadedReports(t *testing.T, r reportsModel) reportsModel {
	t.Helper()
	for _, msg := range runCmd(r.refresh()) {
		r, _ = r.update(msg)
	}
	return r
}

func TestReportsDay(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := loadedReports(t, newReportsModel(env.tracker))

	if !r.loaded || r.report.Result.TotalSeconds != 7200 || len(r.report.Intervals) != 2 {
		t.Fatalf("day report = %+v", r.report.Result)
	}
	if got := r.chartBuckets(); len(got) != 2 || got[0].Label != "P1" {
		t.Fatalf("day chart should show projects: %+v", got)
	}
}

func TestReportsSelectorNavigation(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := loadedReports(t, newReportsModel(env.tracker))

	r, cmd := r.update(keyMsg("l"))
	if r.selector != timelog.Week {
		t.Fatalf("selector = %v, want week", r.selector)
	}
	for _, msg := range runCmd(cmd) {
		r, _ = r.update(msg)
	}
	if r.report.Result.TotalSeconds != 10800 {
		t.Fatalf("week total = %d", r.report.Result.TotalSeconds)
	}
	if got := r.chartBuckets(); len(got) != 2 || !strings.HasPrefix(got[0].Label, "2024-03-12") {
		t.Fatalf("week chart should show days: %+v", got)
	}

	// Stepping back from Day wraps to All time.
	r.selector = timelog.Day
	r, _ = r.update(keyMsg("h"))
	if r.selector != timelog.AllTime {
		t.Fatalf("selector = %v, want all", r.selector)
	}

	// Reaching Custom without a range asks for one.
	r.selector = timelog.CurrentMonth
	r, _ = r.update(keyMsg("l"))
	if !r.formActive || r.formKind != reportFormRange {
		t.Fatal("custom without a range should open the range form")
	}
	if r.fields.from != "2024-03-08" || r.fields.to != "2024-03-15" {
		t.Fatalf("range defaults = %s..%s", r.fields.from, r.fields.to)
	}
}

func TestReportsStaleDataIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := newReportsModel(env.tracker)
	cmd := r.refresh()
	r.selector = timelog.Month
	for _, msg := range runCmd(cmd) {
		r, _ = r.update(msg)
	}
	if r.loaded {
		t.Fatal("a report for a previous selector must be dropped")
	}
}

func TestReportsApplyRange(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := loadedReports(t, newReportsModel(env.tracker))

	r.fields.from, r.fields.to = "2024-03-12", "bad"
	r, cmd := r.applyRange()
	if r.selector != timelog.Day || r.custom != nil {
		t.Fatal("an invalid range must keep the current report")
	}
	if msgs := runCmd(cmd); len(msgs) != 1 || !msgs[0].(statusMsg).isError {
		t.Fatalf("expected an error status, got %v", msgs)
	}

	r.fields.from, r.fields.to = "2024-03-12", "2024-03-12"
	r, cmd = r.applyRange()
	if r.selector != timelog.Custom || r.custom == nil {
		t.Fatal("a valid range selects the custom period")
	}
	for _, msg := range runCmd(cmd) {
		r, _ = r.update(msg)
	}
	if r.report.Result.TotalSeconds != 3600 {
		t.Fatalf("custom total = %d", r.report.Result.TotalSeconds)
	}
}

func TestReportsEditAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := loadedReports(t, newReportsModel(env.tracker))

	r, _ = r.update(keyMsg("j"))
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !r.formActive || r.formKind != reportFormEdit || r.editing.SourceIndex != 1 {
		t.Fatalf("enter should edit the selected entry: %+v", r.editing)
	}
	if r.fields.start != "2024-03-15 11:00" {
		t.Fatalf("start field = %q", r.fields.start)
	}
	r.closeForm()

	r.fields.start, r.fields.end = "2024-03-15 11:00", "2024-03-15 12:00"
	if msgs := runCmd(r.applyEdit()); len(msgs) != 1 {
		t.Fatalf("edit messages = %v", msgs)
	} else if _, ok := msgs[0].(entryChangedMsg); !ok {
		t.Fatalf("edit failed: %v", msgs[0])
	}
	recs := env.records(t)
	if recs[1][timelog.KeyEnd] != "2024-03-15T12:00:00" {
		t.Fatalf("edited record = %v", recs[1])
	}

	r.fields.action = actionDelete
	runCmd(r.applyEdit())
	if recs := env.records(t); len(recs) != 2 || recs[1][timelog.KeyTaskText] != "C" {
		t.Fatalf("after delete = %v", recs)
	}
}

func TestReportsCorruptLog(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, "[{broken")
	r := loadedReports(t, newReportsModel(env.tracker))
	r.setSize(120, 40)
	if !r.loaded || !r.corrupt {
		t.Fatal("a corrupt log loads as an empty, flagged report")
	}
	if out := r.view(); !strings.Contains(out, "not readable") {
		t.Fatalf("view should flag the log:\n%s", out)
	}
}

func TestReportsViewRenders(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	r := newReportsModel(env.tracker)
	r.setSize(140, 50)
	r.selector = timelog.Week
	r = loadedReports(t, r)

	out := r.view()
	for _, want := range []string{"Current week", "Total 3:00:00", "By project", "By task", "P1", "Start"} {
		if !strings.Contains(out, want) {
			t.Fatalf("reports view missing %q:\n%s", want, out)
		}
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsSave(t *testing.T) {
	env := newTestEnv(t)
	s := newSettingsModel(env.store, nil)
	s, _ = s.showForm()
	if !*s.autoscreen || *s.interval != "15" || *s.defaultProject != store.DefaultProject {
		t.Fatalf("form defaults = %v %q %q", *s.autoscreen, *s.interval, *s.defaultProject)
	}

	*s.autoscreen = false
	*s.interval = "30"
	*s.defaultProject = "Clients"
	*s.hideDone = false
	if err := s.saveSettings(); err != nil {
		t.Fatal(err)
	}
	a := env.store.AutoscreenSettings()
	if a.Enabled || a.IntervalMinutes != 30 {
		t.Fatalf("autoscreen = %+v", a)
	}
	if env.store.DefaultProjectName() != "Clients" || env.store.GetBool(store.KeyHideDone, true) {
		t.Fatal("task preferences not saved")
	}

	*s.interval = "500"
	if err := s.saveSettings(); err == nil {
		t.Fatal("an out-of-range interval must be rejected")
	}
}

func TestValidateInterval(t *testing.T) {
	for _, v := range []string{"1", "15", " 120 "} {
		if err := validateInterval(v); err != nil {
			t.Errorf("validateInterval(%q) = %v", v, err)
		}
	}
	for _, v := range []string{"0", "121", "ten", ""} {
		if err := validateInterval(v); err == nil {
			t.Errorf("validateInterval(%q) should fail", v)
		}
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, val, want string
	}{
		{store.KeyAutoscreenInterval, "15", "15 min"},
		{store.KeyAutoscreenEnabled, "true", "on"},
		{store.KeyHideDone, "false", "off"},
		{store.KeyDefaultProject, "General", "General"},
		{store.KeyAutoscreenInterval, "abc", "abc"},
	}
	for _, tt := range tests {
		got := formatSettingValue(tt.key, tt.val)
		if got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.val, got, tt.want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	env := newTestEnv(t)
	app := env.app()

	if app.activeView != viewTasks {
		t.Fatal("default view should be tasks")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	env := newTestEnv(t)
	app := env.app()
	app.width = 120
	app.height = 40

	for _, v := range []viewState{viewTasks, viewReports, viewSettings} {
		app.activeView = v
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabKeys(t *testing.T) {
	env := newTestEnv(t)
	var model tea.Model = env.app()
	model, _ = model.Update(keyMsg("2"))
	if model.(App).activeView != viewReports {
		t.Fatal("2 should open reports")
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewSettings {
		t.Fatal("tab should move to settings")
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewTasks {
		t.Fatal("tab should wrap to tasks")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	env := newTestEnv(t)
	app := env.app()
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	env := newTestEnv(t)
	app := env.app()
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	env := newTestEnv(t)
	var model tea.Model = env.app()
	model, _ = model.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	model, _ = model.Update(statusMsg{text: "test status", isError: true})
	app := model.(App)
	if !app.statusError {
		t.Fatal("error flag should be kept")
	}
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppQuitRecordsRunningTimer(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t, "Write", "Work")
	app := env.app()
	app.tasks = loadedTasks(t, app.tasks)

	var model tea.Model = app
	model, _ = model.Update(keyMsg("s"))
	env.clock.advance(5 * time.Minute)
	model.Update(keyMsg("q"))

	recs := env.records(t)
	if len(recs) != 1 {
		t.Fatalf("quitting should record the running timer, got %d records", len(recs))
	}
}

func TestAppExport(t *testing.T) {
	env := newTestEnv(t)
	env.writeLog(t, sampleLog)
	dir := t.TempDir()
	app := NewApp(Deps{Store: env.store, Tracker: env.tracker, ExportDir: dir})

	msgs := runCmd(app.doExport(1))
	if len(msgs) != 1 {
		t.Fatalf("export messages = %v", msgs)
	}
	done, ok := msgs[0].(exportDoneMsg)
	if !ok {
		t.Fatalf("export failed: %v", msgs[0])
	}
	want := filepath.Join(dir, "tasktimer-day-2024-03-15.json")
	if done.path != want {
		t.Fatalf("path = %q, want %q", done.path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"total_seconds": 7200`) {
		t.Fatalf("export content:\n%s", data)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"timerPaused", func() string { return timerPausedStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"doneTask", func() string { return doneTaskStyle.Render("test") }},
		{"overdueTask", func() string { return overdueTaskStyle.Render("test") }},
		{"activeTask", func() string { return activeTaskStyle.Render("test") }},
		{"tableHeader", func() string { return tableHeaderStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
