package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/tasktimer/internal/logstore"
	"github.com/sadopc/tasktimer/internal/timelog"
	"github.com/sadopc/tasktimer/internal/tracker"
)

type reportForm int

const (
	reportFormNone reportForm = iota
	reportFormRange
	reportFormEdit
)

const (
	actionSave   = "save"
	actionDelete = "delete"
)

type reportFields struct {
	from   string
	to     string
	start  string
	end    string
	action string
}

type reportsModel struct {
	tracker *tracker.Tracker
	width   int
	height  int

	selector timelog.Selector
	custom   *timelog.DateRange
	report   timelog.Report
	loaded   bool
	corrupt  bool
	cursor   int

	formActive bool
	formKind   reportForm
	form       *huh.Form
	fields     *reportFields
	editing    timelog.Interval

	chart barchart.Model
}

func newReportsModel(t *tracker.Tracker) reportsModel {
	return reportsModel{
		tracker:  t,
		selector: timelog.Day,
		fields:   &reportFields{},
		chart:    barchart.New(60, 10),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type reportsDataMsg struct {
	selector timelog.Selector
	report   timelog.Report
	corrupt  bool
}

func (r reportsModel) refresh() tea.Cmd {
	sel, custom := r.selector, r.custom
	return func() tea.Msg {
		rep, err := r.tracker.Report(sel, custom)
		switch {
		case errors.Is(err, logstore.ErrCorrupt):
			return reportsDataMsg{selector: sel, report: rep, corrupt: true}
		case err != nil:
			return statusMsg{text: fmt.Sprintf("Report: %v", err), isError: true}
		}
		return reportsDataMsg{selector: sel, report: rep}
	}
}

// currentReport is what the export picker writes out.
func (r reportsModel) currentReport() (timelog.Report, bool) {
	return r.report, r.loaded
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.selector != r.selector {
			return r, nil
		}
		r.report = msg.report
		r.corrupt = msg.corrupt
		r.loaded = true
		if r.cursor >= len(r.report.Intervals) {
			r.cursor = max(0, len(r.report.Intervals)-1)
		}
		r.buildChart()
		return r, nil

	case entryChangedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			return r.moveSelector(-1)
		case key.Matches(msg, keys.Right):
			return r.moveSelector(1)
		case key.Matches(msg, keys.Range):
			return r.showRangeForm()
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.report.Intervals)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if r.cursor < len(r.report.Intervals) {
				return r.showEditForm(r.report.Intervals[r.cursor])
			}
		}
	}
	return r, nil
}

func (r reportsModel) moveSelector(delta int) (reportsModel, tea.Cmd) {
	n := len(timelog.Selectors)
	idx := 0
	for i, s := range timelog.Selectors {
		if s == r.selector {
			idx = i
		}
	}
	next := timelog.Selectors[(idx+delta+n)%n]
	if next == timelog.Custom && r.custom == nil {
		return r.showRangeForm()
	}
	r.selector = next
	r.cursor = 0
	return r, r.refresh()
}

// --- Forms ---

func (r reportsModel) showRangeForm() (reportsModel, tea.Cmd) {
	today := r.tracker.Now()
	f := r.fields
	*f = reportFields{
		from: today.AddDate(0, 0, -7).Format(timelog.DateLayout),
		to:   today.Format(timelog.DateLayout),
	}
	if r.custom != nil {
		f.from = r.custom.From.Format(timelog.DateLayout)
		f.to = r.custom.To.Format(timelog.DateLayout)
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("From").Placeholder("YYYY-MM-DD").Value(&f.from),
			huh.NewInput().Title("To").Placeholder("YYYY-MM-DD").Value(&f.to),
		).Title("Custom period"),
	).WithShowHelp(true)
	r.formKind = reportFormRange
	r.formActive = true
	return r, r.form.Init()
}

func (r reportsModel) showEditForm(iv timelog.Interval) (reportsModel, tea.Cmd) {
	r.editing = iv
	f := r.fields
	*f = reportFields{
		start:  iv.Start.Format(dateTimeLayout),
		end:    iv.End.Format(dateTimeLayout),
		action: actionSave,
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(&f.start).Validate(validateDateTime),
			huh.NewInput().Title("End").Value(&f.end).Validate(validateDateTime),
			huh.NewSelect[string]().Title("Action").
				Options(
					huh.NewOption("Save changes", actionSave),
					huh.NewOption("Delete entry", actionDelete),
				).Value(&f.action),
		).Title("Entry: " + truncate(iv.TaskText, 40)),
	).WithShowHelp(true).WithShowErrors(true)
	r.formKind = reportFormEdit
	r.formActive = true
	return r, r.form.Init()
}

func (r reportsModel) updateForm(msg tea.Msg) (reportsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.closeForm()
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	switch r.form.State {
	case huh.StateCompleted:
		kind := r.formKind
		r.closeForm()
		if kind == reportFormRange {
			return r.applyRange()
		}
		return r, r.applyEdit()
	case huh.StateAborted:
		r.closeForm()
		return r, nil
	}
	return r, cmd
}

func (r *reportsModel) closeForm() {
	r.formActive = false
	r.formKind = reportFormNone
	r.form = nil
}

// applyRange switches to the custom period. An invalid range keeps the
// report on screen unchanged.
func (r reportsModel) applyRange() (reportsModel, tea.Cmd) {
	dr, err := timelog.ParseDateRange(strings.TrimSpace(r.fields.from), strings.TrimSpace(r.fields.to), time.Local)
	if err != nil {
		return r, statusCmd(fmt.Sprintf("Custom period: %v", err), true)
	}
	r.custom = &dr
	r.selector = timelog.Custom
	r.cursor = 0
	return r, r.refresh()
}

func (r reportsModel) applyEdit() tea.Cmd {
	iv := r.editing
	f := *r.fields
	return func() tea.Msg {
		if f.action == actionDelete {
			if err := r.tracker.Delete(iv.SourceIndex); err != nil {
				return statusMsg{text: err.Error(), isError: true}
			}
			return entryChangedMsg{}
		}
		start, err := parseDateTime(f.start)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		end, err := parseDateTime(f.end)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		if err := r.tracker.Edit(iv.SourceIndex, start, end); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return entryChangedMsg{}
	}
}

// --- View ---

// chartBuckets picks what the bar chart shows: the day or week groups when
// the period has them, otherwise the per-project totals.
func (r reportsModel) chartBuckets() []timelog.Bucket {
	if r.report.Window.Grouping != timelog.GroupNone && len(r.report.Result.ByGroup) > 0 {
		return r.report.Result.ByGroup
	}
	return r.report.Result.ByProject
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 8
	if r.height > 36 {
		chartHeight = 12
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	buckets := r.chartBuckets()
	if len(buckets) == 0 {
		return
	}
	bars := make([]barchart.BarData, 0, len(buckets))
	for i, b := range buckets {
		label := b.Label
		if r.report.Window.Grouping == timelog.GroupByDay && len(label) >= len(timelog.DateLayout) {
			label = label[5:len(timelog.DateLayout)]
		}
		bars = append(bars, barchart.BarData{
			Label: truncate(label, 10),
			Values: []barchart.BarValue{{
				Name:  b.Label,
				Value: float64(b.Seconds) / 3600,
				Style: barStyles[i%len(barStyles)],
			}},
		})
	}
	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Reports"), "", r.form.View()),
		)
	}

	rows := []string{r.renderSelectorTabs(), r.renderPeriodLabel(), ""}
	if r.corrupt {
		rows = append(rows, errorStyle.Render("The time log is not readable; showing no entries."), "")
	}
	if len(r.report.Intervals) == 0 {
		rows = append(rows, mutedStyle.Render("  No data for this period"))
	} else {
		rows = append(rows, r.chart.View(), "", r.renderSummary(w), "", r.renderEntries(w))
	}
	rows = append(rows, "", mutedStyle.Render("  ←/→: period  r: custom range  enter: edit entry  E: export"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (r reportsModel) renderSelectorTabs() string {
	tabs := make([]string, 0, len(timelog.Selectors))
	for _, s := range timelog.Selectors {
		if s == r.selector {
			tabs = append(tabs, activeTabStyle.Render(s.Title()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(s.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (r reportsModel) renderPeriodLabel() string {
	if !r.loaded {
		return mutedStyle.Render("Loading...")
	}
	win := r.report.Window
	period := "All recorded time"
	if r.report.Selector != timelog.AllTime {
		period = fmt.Sprintf("%s - %s", win.Start.Format("Jan 02, 2006"), win.End.Format("Jan 02, 2006"))
	}
	total := titleStyle.Render("Total " + timelog.FormatSeconds(r.report.Result.TotalSeconds))
	return subtitleStyle.Render(period) + "   " + total
}

func (r reportsModel) renderSummary(w int) string {
	col := max((w-8)/2, 26)
	left := r.renderBuckets("By project", r.report.Result.ByProject, col)
	right := r.renderBuckets("By task", r.report.Result.ByTask, col)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
}

func (r reportsModel) renderBuckets(title string, bs []timelog.Bucket, width int) string {
	lines := []string{tableHeaderStyle.Render(title)}
	for i, b := range bs {
		if i == 8 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ...and %d more", len(bs)-i)))
			break
		}
		label := truncate(b.Label, max(width-12, 8))
		lines = append(lines, fmt.Sprintf("  %-*s %9s %6s", max(width-12, 8), label,
			timelog.FormatSeconds(b.Seconds), formatHours(b.Seconds)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (r reportsModel) renderEntries(w int) string {
	ivs := r.report.Intervals
	visible := max(r.height-30, 5)
	first := 0
	if r.cursor >= visible {
		first = r.cursor - visible + 1
	}
	last := min(first+visible, len(ivs))

	rows := make([][]string, 0, last-first)
	for _, iv := range ivs[first:last] {
		rows = append(rows, []string{
			strconv.Itoa(iv.SourceIndex),
			iv.Start.Format("Mon 01-02 15:04"),
			iv.End.Format("15:04"),
			timelog.FormatSeconds(iv.DurationSeconds),
			truncate(iv.Project, 16),
			truncate(iv.TaskText, max(w-70, 12)),
		})
	}

	cursorRow := r.cursor - first
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "Start", "End", "Duration", "Project", "Task").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle.Padding(0, 1)
			case row == cursorRow:
				return selectedItemStyle.Padding(0, 1)
			}
			return tableCellStyle
		})
	return t.Render()
}
