package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasktimer/internal/export"
	"github.com/sadopc/tasktimer/internal/screenshot"
	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/timelog"
	"github.com/sadopc/tasktimer/internal/tracker"
)

// Deps are the services the interface drives. Shots may be nil, which turns
// screenshots off.
type Deps struct {
	Store   *store.Store
	Tracker *tracker.Tracker
	Active  *tracker.Active
	Shots   *screenshot.Manager
	// ExportDir receives CSV and JSON exports. Empty means the home directory.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	tasks    tasksModel
	reports  reportsModel
	settings settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(d Deps) App {
	if d.Active == nil {
		d.Active = &tracker.Active{}
	}
	h := help.New()
	h.ShowAll = false

	return App{
		deps:       d,
		activeView: viewTasks,
		tasks:      newTasksModel(d.Store, d.Tracker, d.Shots, d.Active),
		reports:    newReportsModel(d.Tracker),
		settings:   newSettingsModel(d.Store, d.Shots),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.tasks.refresh(),
		a.reports.refresh(),
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// The timer reads the clock on render; ticks only keep it moving.
		return a, tickCmd()

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		if msg.isError {
			slog.Warn("tui", "status", msg.text)
		}
		return a, nil

	case timerStoppedMsg:
		a.status = "Timer stopped after " + formatDuration(msg.elapsed)
		a.statusError = false
		return a, a.reports.refresh()

	case timerStartedMsg:
		a.status = "Timer started: " + msg.task
		a.statusError = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case entryChangedMsg, settingsSavedMsg:
		// Both the task view and the report react to changed entries and
		// settings, whichever is on screen.
		var c1, c2 tea.Cmd
		a.tasks, c1 = a.tasks.update(msg)
		a.reports, c2 = a.reports.update(msg)
		return a, tea.Batch(c1, c2)

	case tasksDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// quit records a running timer before leaving so no time is lost.
func (a App) quit() tea.Cmd {
	if a.tasks.isRunning() {
		if _, err := a.tasks.timer.stop(); err != nil {
			slog.Error("record timer on exit", "error", err)
		}
	}
	if a.deps.Shots != nil {
		a.deps.Shots.Stop()
	}
	return tea.Quit
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewReports:
		return a.reports.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tasktimer")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.tasks.isRunning() {
		elapsed := a.tasks.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.tasks.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rep, _ := a.reports.currentReport()
	title := titleStyle.Render("Export " + rep.Selector.Title())
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the report currently selected in the Reports view.
func (a App) doExport(format int) tea.Cmd {
	rep, loaded := a.reports.currentReport()
	sel, custom := a.reports.selector, a.reports.custom
	dir := a.deps.ExportDir
	t := a.deps.Tracker
	return func() tea.Msg {
		if !loaded {
			var err error
			rep, err = t.Report(sel, custom)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
		}
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		name := exportName(rep, t.Now())

		var path string
		if format == 0 {
			path = filepath.Join(dir, name+".csv")
			if err := export.ToCSV(rep.Intervals, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, name+".json")
			if err := export.ToJSON(rep, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}
		slog.Info("report exported", "path", path, "entries", len(rep.Intervals))
		return exportDoneMsg{path: path}
	}
}

func exportName(rep timelog.Report, now time.Time) string {
	return fmt.Sprintf("tasktimer-%s-%s", rep.Selector, now.Format(timelog.DateLayout))
}
