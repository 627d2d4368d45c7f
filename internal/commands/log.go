package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tasktimer/internal/timelog"
)

// entryTimeLayout is how time log bounds are given on the command line.
const entryTimeLayout = "2006-01-02 15:04"

func newLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List and correct time log entries",
		Long:  "List, add, edit or remove entries of the time log. Entries are addressed by the index shown in \"log list\".",
	}
	cmd.AddCommand(
		newLogListCmd(a),
		newLogAddCmd(a),
		newLogEditCmd(a),
		newLogRemoveCmd(a),
	)
	return cmd
}

func newLogListCmd(a *app) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:       "list [period]",
		Aliases:   []string{"ls"},
		Short:     "List entries of a period (default: all)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: selectorNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, custom, err := period.resolve(args, timelog.AllTime)
			if err != nil {
				return err
			}
			rep, err := a.buildReport(cmd, sel, custom)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rep.Intervals) == 0 {
				fmt.Fprintln(out, "No entries.")
				return nil
			}
			fmt.Fprintln(out, intervalTable(rep.Intervals))
			fmt.Fprintf(out, "%d entries, %s\n", len(rep.Intervals), timelog.FormatSeconds(rep.Result.TotalSeconds))
			return nil
		},
	}
	period.register(cmd)
	return cmd
}

func newLogAddCmd(a *app) *cobra.Command {
	var date, start, end string
	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add time spent on a task",
		Long:  "Add a manual entry for a task. The entry must be in the past and must not overlap existing entries.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			task, err := findTask(s, args[0])
			if err != nil {
				return err
			}
			day := a.now()
			if date != "" {
				day, err = time.ParseInLocation(timelog.DateLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("--date %q: %w", date, timelog.ErrInvalidDate)
				}
			}
			from, err := atClock(day, start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to, err := atClock(day, end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			if err := a.openTracker().AddManual(trackerTask(task), from, to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %q\n",
				timelog.FormatSeconds(int64(to.Sub(from)/time.Second)), task.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the entry (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "end time (HH:MM)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func atClock(day time.Time, clock string) (time.Time, error) {
	c, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not HH:MM", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, time.Local), nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%q is not an entry index", s)
	}
	return i, nil
}

func newLogEditCmd(a *app) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Change the start and end of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			from, err := time.ParseInLocation(entryTimeLayout, start, time.Local)
			if err != nil {
				return fmt.Errorf("--start %q: want %q", start, entryTimeLayout)
			}
			to, err := time.ParseInLocation(entryTimeLayout, end, time.Local)
			if err != nil {
				return fmt.Errorf("--end %q: want %q", end, entryTimeLayout)
			}
			if err := a.openTracker().Edit(idx, from, to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %d updated\n", idx)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "new end (YYYY-MM-DD HH:MM)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newLogRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := a.openTracker().Delete(idx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %d removed\n", idx)
			return nil
		},
	}
}
