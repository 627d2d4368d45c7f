package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/tasktimer/internal/export"
	"github.com/sadopc/tasktimer/internal/logstore"
	"github.com/sadopc/tasktimer/internal/timelog"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// periodFlags are the --from/--to flags shared by report-like commands.
type periodFlags struct {
	from string
	to   string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.from, "from", "", "first day of a custom period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.to, "to", "", "last day of a custom period (YYYY-MM-DD)")
}

// resolve turns the optional period argument and the range flags into a
// selector. Giving --from/--to without a period selects "custom".
func (p periodFlags) resolve(args []string, def timelog.Selector) (timelog.Selector, *timelog.DateRange, error) {
	sel := def
	if len(args) > 0 {
		s, err := timelog.ParseSelector(args[0])
		if err != nil {
			return 0, nil, err
		}
		sel = s
	}
	if p.from == "" && p.to == "" {
		return sel, nil, nil
	}
	if len(args) > 0 && sel != timelog.Custom {
		return 0, nil, fmt.Errorf("--from/--to only apply to the %q period", timelog.Custom)
	}
	dr, err := timelog.ParseDateRange(p.from, p.to, time.Local)
	if err != nil {
		return 0, nil, err
	}
	return timelog.Custom, &dr, nil
}

func selectorNames() []string {
	names := make([]string, 0, len(timelog.Selectors))
	for _, s := range timelog.Selectors {
		names = append(names, s.String())
	}
	return names
}

// buildReport loads the report for the period. A corrupt time log is reported
// on stderr and treated as empty.
func (a *app) buildReport(cmd *cobra.Command, sel timelog.Selector, custom *timelog.DateRange) (timelog.Report, error) {
	rep, err := a.openTracker().Report(sel, custom)
	if errors.Is(err, logstore.ErrCorrupt) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return rep, nil
	}
	if err == nil && rep.Stats.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d unreadable time log record(s)\n", rep.Stats.Skipped)
	}
	return rep, err
}

func newReportCmd(a *app) *cobra.Command {
	var (
		period periodFlags
		format string
	)
	cmd := &cobra.Command{
		Use:       "report [period]",
		Short:     "Show where the time went",
		Long:      "Summarise logged time by project, task and day or week. Periods: day, week, month, current-week, current-month, custom, all.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: selectorNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, custom, err := period.resolve(args, timelog.Day)
			if err != nil {
				return err
			}
			rep, err := a.buildReport(cmd, sel, custom)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "table":
				renderReport(out, rep)
				return nil
			case "json":
				return export.WriteJSON(out, rep)
			case "csv":
				return export.WriteCSV(out, rep.Intervals)
			}
			return fmt.Errorf("unknown format %q: use table, json or csv", format)
		},
	}
	period.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or csv")
	return cmd
}

func periodLabel(rep timelog.Report) string {
	if rep.Selector == timelog.AllTime {
		return rep.Selector.Title()
	}
	from := rep.Window.Start.Format(timelog.DateLayout)
	to := rep.Window.End.Format(timelog.DateLayout)
	if from == to {
		return fmt.Sprintf("%s (%s)", rep.Selector.Title(), from)
	}
	return fmt.Sprintf("%s (%s to %s)", rep.Selector.Title(), from, to)
}

func renderReport(out io.Writer, rep timelog.Report) {
	fmt.Fprintln(out, titleStyle.Render(periodLabel(rep)))
	fmt.Fprintf(out, "Total: %s\n", timelog.FormatSeconds(rep.Result.TotalSeconds))
	if len(rep.Intervals) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No time logged in this period."))
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, bucketTable("Project", rep.Result.ByProject))
	fmt.Fprintln(out, bucketTable("Task", rep.Result.ByTask))
	switch rep.Window.Grouping {
	case timelog.GroupByDay:
		fmt.Fprintln(out, bucketTable("Day", rep.Result.ByGroup))
	case timelog.GroupByWeek:
		fmt.Fprintln(out, bucketTable("Week", rep.Result.ByGroup))
	}
}

func bucketTable(label string, bs []timelog.Bucket) string {
	rows := make([][]string, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, []string{b.Label, timelog.FormatSeconds(b.Seconds), timelog.FormatHM(b.Seconds)})
	}
	return newTable(label, "Time", "Hours:Min").Rows(rows...).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func intervalTable(ivs []timelog.Interval) string {
	rows := make([][]string, 0, len(ivs))
	for _, iv := range ivs {
		rows = append(rows, []string{
			strconv.Itoa(iv.SourceIndex),
			iv.Start.Format("2006-01-02 15:04"),
			iv.End.Format("2006-01-02 15:04"),
			timelog.FormatSeconds(iv.DurationSeconds),
			iv.Project,
			iv.TaskText,
		})
	}
	return newTable("#", "Start", "End", "Duration", "Project", "Task").Rows(rows...).Render()
}
