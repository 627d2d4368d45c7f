package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasktimer/internal/screenshot"
	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/timelog"
	"github.com/sadopc/tasktimer/internal/tracker"
)

type taskForm int

const (
	formNone taskForm = iota
	formNewTask
	formEditTask
	formDeleteTask
	formManualEntry
)

// taskFields holds form values behind pointers so they survive value copies
// of the model while huh writes into them.
type taskFields struct {
	text     string
	project  string
	section  string
	deadline string
	note     string

	date    string
	start   string
	end     string
	confirm bool
}

type tasksModel struct {
	store   *store.Store
	tracker *tracker.Tracker
	shots   *screenshot.Manager
	timer   timerModel
	width   int
	height  int

	tasks        []store.Task
	projects     []string
	todaySeconds int64
	cursor       int
	hideDone     bool

	formActive bool
	formKind   taskForm
	form       *huh.Form
	fields     *taskFields
	editingID  string

	// notice is shown above the list until the next key press.
	notice string
}

func newTasksModel(s *store.Store, t *tracker.Tracker, shots *screenshot.Manager, a *tracker.Active) tasksModel {
	return tasksModel{
		store:    s,
		tracker:  t,
		shots:    shots,
		timer:    newTimerModel(t, a),
		hideDone: s.GetBool(store.KeyHideDone, true),
		fields:   &taskFields{},
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) isRunning() bool { return m.timer.running() }
func (m tasksModel) isPaused() bool  { return m.timer.paused() }
func (m tasksModel) elapsed() time.Duration {
	return m.timer.currentElapsed()
}

type tasksDataMsg struct {
	tasks        []store.Task
	projects     []string
	todaySeconds int64
	hideDone     bool
}

func (m tasksModel) refresh() tea.Cmd {
	hideDone := m.hideDone
	return func() tea.Msg {
		tasks, err := m.store.ListTasks(hideDone)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load tasks: %v", err), isError: true}
		}
		projects, _ := m.store.ListProjects()
		rep, _ := m.tracker.Report(timelog.Day, nil)
		return tasksDataMsg{
			tasks:        tasks,
			projects:     projects,
			todaySeconds: rep.Result.TotalSeconds,
			hideDone:     hideDone,
		}
	}
}

func (m tasksModel) selected() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return store.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func trackerTask(t store.Task) tracker.Task {
	return tracker.Task{ID: t.ID, Text: t.Text, Project: t.Project, Section: t.Section}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		m.projects = msg.projects
		m.todaySeconds = msg.todaySeconds
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case entryChangedMsg:
		return m, m.refresh()

	case settingsSavedMsg:
		m.hideDone = m.store.GetBool(store.KeyHideDone, true)
		return m, m.refresh()

	case tea.KeyMsg:
		m.notice = ""
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m tasksModel) updateKeys(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
		if t, ok := m.selected(); ok {
			return m.startTimer(t)
		}
		return m, statusCmd("No tasks yet. Press n to create one.", true)
	case key.Matches(msg, keys.Stop):
		return m.stopTimer()
	case key.Matches(msg, keys.Pause):
		return m.togglePause()
	case key.Matches(msg, keys.Screenshot):
		return m, m.captureCmd(false)
	case key.Matches(msg, keys.New):
		return m.showTaskForm(formNewTask)
	case key.Matches(msg, keys.Edit):
		if _, ok := m.selected(); ok {
			return m.showTaskForm(formEditTask)
		}
	case key.Matches(msg, keys.Done):
		if t, ok := m.selected(); ok {
			return m, tea.Sequence(m.toggleDone(t.ID), m.refresh())
		}
	case key.Matches(msg, keys.Delete):
		if _, ok := m.selected(); ok {
			return m.showDeleteForm()
		}
	case key.Matches(msg, keys.Manual):
		if _, ok := m.selected(); ok {
			return m.showManualForm()
		}
	case key.Matches(msg, keys.HideDone):
		m.hideDone = !m.hideDone
		hide := m.hideDone
		return m, tea.Batch(m.refresh(), func() tea.Msg {
			if err := m.store.SetSetting(store.KeyHideDone, strconv.FormatBool(hide)); err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return nil
		})
	}
	return m, nil
}

// --- Timer ---

func (m tasksModel) startTimer(t store.Task) (tasksModel, tea.Cmd) {
	if m.timer.running() && m.timer.task.ID == t.ID {
		return m, nil
	}
	if err := m.timer.start(trackerTask(t)); err != nil {
		return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	started := func() tea.Msg { return timerStartedMsg{task: t.Text} }
	return m, tea.Batch(started, m.captureCmd(true), m.refresh())
}

func (m tasksModel) stopTimer() (tasksModel, tea.Cmd) {
	if !m.timer.running() {
		return m, nil
	}
	total, err := m.timer.stop()
	if m.shots != nil {
		m.shots.Stop()
	}
	if err != nil {
		return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return timerStoppedMsg{elapsed: total} },
	)
}

func (m tasksModel) togglePause() (tasksModel, tea.Cmd) {
	wasRunning := m.timer.state == timerRunning
	if err := m.timer.toggle(); err != nil {
		return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	if wasRunning {
		if m.shots != nil {
			m.shots.Stop()
		}
		return m, tea.Batch(m.refresh(), statusCmd("Timer paused", false))
	}
	if m.timer.state == timerRunning {
		return m, m.captureCmd(true)
	}
	return m, nil
}

// captureCmd takes one screenshot of the active project. With schedule set
// it also (re)starts periodic capture.
func (m tasksModel) captureCmd(schedule bool) tea.Cmd {
	if m.shots == nil {
		return nil
	}
	shots := m.shots
	project := m.timer.task.Project
	if !m.timer.running() {
		if t, ok := m.selected(); ok {
			project = t.Project
		}
	}
	return func() tea.Msg {
		if schedule {
			if err := shots.Start(); err != nil {
				return statusMsg{text: fmt.Sprintf("Auto screenshots: %v", err), isError: true}
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		path, err := shots.Take(ctx, project)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Screenshot: %v", err), isError: true}
		}
		return statusMsg{text: "Screenshot saved to " + path}
	}
}

func (m tasksModel) toggleDone(id string) tea.Cmd {
	return func() tea.Msg {
		done, err := m.store.ToggleDone(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		if done {
			return statusMsg{text: "Task completed"}
		}
		return statusMsg{text: "Task reopened"}
	}
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Forms ---

func (m tasksModel) showTaskForm(kind taskForm) (tasksModel, tea.Cmd) {
	f := m.fields
	*f = taskFields{project: m.store.DefaultProjectName()}
	title := "New task"
	if kind == formEditTask {
		t, _ := m.selected()
		m.editingID = t.ID
		f.text, f.project, f.section, f.note = t.Text, t.Project, t.Section, t.Note
		if t.Deadline != nil {
			f.deadline = t.Deadline.Format(store.DateLayout)
		}
		title = "Edit task"
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(&f.text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return store.ErrEmptyText
					}
					return nil
				}),
			huh.NewInput().Title("Project").Value(&f.project).Suggestions(m.projects),
			huh.NewInput().Title("Section").Value(&f.section),
			huh.NewInput().Title("Deadline").Placeholder("YYYY-MM-DD").Value(&f.deadline).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateDate(strings.TrimSpace(s))
				}),
			huh.NewInput().Title("Note").Value(&f.note),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	m.formKind = kind
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showDeleteForm() (tasksModel, tea.Cmd) {
	t, _ := m.selected()
	m.editingID = t.ID
	*m.fields = taskFields{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", truncate(t.Text, 40))).
				Description("Logged time stays in the time log.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.fields.confirm),
		),
	)
	m.formKind = formDeleteTask
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showManualForm() (tasksModel, tea.Cmd) {
	t, _ := m.selected()
	m.editingID = t.ID
	now := m.tracker.Now()
	from := now.Add(-15 * time.Minute)
	f := m.fields
	*f = taskFields{
		date:  from.Format(timelog.DateLayout),
		start: from.Format(clockLayout),
		end:   now.Format(clockLayout),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&f.date).Validate(validateDate),
			huh.NewInput().Title("Start").Placeholder("HH:MM").Value(&f.start).Validate(validateClock),
			huh.NewInput().Title("End").Placeholder("HH:MM").Value(&f.end).Validate(validateClock),
		).Title("Add time to " + truncate(t.Text, 40)),
	).WithShowHelp(true).WithShowErrors(true)

	m.formKind = formManualEntry
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.closeForm()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		kind := m.formKind
		m.closeForm()
		return m.submit(kind)
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *tasksModel) closeForm() {
	m.formActive = false
	m.formKind = formNone
	m.form = nil
}

func (m tasksModel) submit(kind taskForm) (tasksModel, tea.Cmd) {
	f := *m.fields
	switch kind {
	case formNewTask, formEditTask:
		in := store.TaskInput{Text: f.text, Project: f.project, Section: f.section, Note: f.note}
		if d := strings.TrimSpace(f.deadline); d != "" {
			dl, err := parseDate(d)
			if err != nil {
				return m, statusCmd(err.Error(), true)
			}
			in.Deadline = &dl
		}
		if kind == formNewTask {
			if _, err := m.store.CreateTask(in); err != nil {
				return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
			}
			return m, tea.Batch(m.refresh(), statusCmd("Task created", false))
		}
		if err := m.store.UpdateTask(m.editingID, in); err != nil {
			return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		return m, tea.Batch(m.refresh(), statusCmd("Task updated", false))

	case formDeleteTask:
		if !f.confirm {
			return m, nil
		}
		if m.timer.running() && m.timer.task.ID == m.editingID {
			return m, statusCmd("Stop the timer before deleting its task", true)
		}
		if err := m.store.DeleteTask(m.editingID); err != nil {
			return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
		}
		return m, tea.Batch(m.refresh(), statusCmd("Task deleted", false))

	case formManualEntry:
		return m.addManual(f)
	}
	return m, nil
}

func (m tasksModel) addManual(f taskFields) (tasksModel, tea.Cmd) {
	day, err := parseDate(f.date)
	if err != nil {
		return m, statusCmd(err.Error(), true)
	}
	startClock, err := parseClock(f.start)
	if err != nil {
		return m, statusCmd(err.Error(), true)
	}
	endClock, err := parseClock(f.end)
	if err != nil {
		return m, statusCmd(err.Error(), true)
	}

	var task store.Task
	for _, t := range m.tasks {
		if t.ID == m.editingID {
			task = t
		}
	}
	start, end := atClock(day, startClock), atClock(day, endClock)
	err = m.tracker.AddManual(trackerTask(task), start, end)

	var overlap *tracker.OverlapError
	switch {
	case errors.As(err, &overlap):
		m.notice = "Entry not added: " + overlap.Error()
		return m, statusCmd("Entry overlaps existing time", true)
	case err != nil:
		return m, statusCmd(fmt.Sprintf("Entry not added: %v", err), true)
	}
	msg := fmt.Sprintf("Added %s to %s", timelog.FormatSeconds(int64(end.Sub(start)/time.Second)), task.Text)
	return m, tea.Batch(
		func() tea.Msg { return entryChangedMsg{} },
		statusCmd(msg, false),
	)
}

// --- View ---

func (m tasksModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(m.form.View())
	}

	parts := []string{m.renderTimerPanel(w)}
	if m.notice != "" {
		parts = append(parts, panelStyle.Width(w).Render(errorStyle.Render(m.notice)))
	}
	parts = append(parts, m.renderTaskList(w))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m tasksModel) renderTimerPanel(w int) string {
	var timeDisplay, indicator, label string
	elapsed := formatDuration(m.timer.currentElapsed())

	switch m.timer.state {
	case timerRunning:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(elapsed)
		indicator = successStyle.Render("● RECORDING")
	case timerPaused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(elapsed)
		indicator = warningStyle.Render("⏸ PAUSED")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(elapsed)
		indicator = mutedStyle.Render("○ STOPPED")
	}
	if m.timer.running() {
		label = highlightStyle.Render(m.timer.task.Text) + " " + projectTagStyle.Render("["+m.timer.task.Project+"]")
	} else {
		label = mutedStyle.Render("Select a task and press s to start")
	}

	today := accentStyle.Render("Today: ") + titleStyle.Render(timelog.FormatSeconds(m.todaySeconds))
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, indicator+"  "+label, "", timeDisplay, "", today),
	)
}

func (m tasksModel) renderTaskList(w int) string {
	title := titleStyle.Render("Tasks")
	if m.hideDone {
		title += mutedStyle.Render("  (done hidden)")
	}
	rows := []string{title, ""}

	if len(m.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("  No tasks. Press n to add one."))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	today := m.tracker.Now()
	visible := max(m.height-14, 3)
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}

	for i := first; i < len(m.tasks) && i < first+visible; i++ {
		t := m.tasks[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		check := "[ ]"
		if t.Done {
			check = "[x]"
			style = doneTaskStyle
		}
		if t.Overdue(today) {
			style = overdueTaskStyle
		}
		if m.timer.running() && m.timer.task.ID == t.ID {
			style = activeTaskStyle
		}

		line := fmt.Sprintf("%s%s %s", cursor, check, truncate(t.Text, max(w-40, 10)))
		meta := projectTagStyle.Render(t.Project)
		if t.Section != "" {
			meta += mutedStyle.Render(" / " + t.Section)
		}
		if t.Deadline != nil {
			meta += mutedStyle.Render("  due " + t.Deadline.Format(store.DateLayout))
		}
		rows = append(rows, style.Render(line)+"  "+meta)
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
