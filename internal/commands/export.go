package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tasktimer/internal/export"
	"github.com/sadopc/tasktimer/internal/timelog"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a period of the time log",
	}
	cmd.AddCommand(
		newExportFormatCmd(a, "csv"),
		newExportFormatCmd(a, "json"),
	)
	return cmd
}

// newExportFormatCmd writes to --output when given and to stdout otherwise.
func newExportFormatCmd(a *app, format string) *cobra.Command {
	var (
		period periodFlags
		output string
	)
	cmd := &cobra.Command{
		Use:       format + " [period]",
		Short:     "Export entries as " + format,
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

			if output == "" {
				if format == "csv" {
					return export.WriteCSV(cmd.OutOrStdout(), rep.Intervals)
				}
				return export.WriteJSON(cmd.OutOrStdout(), rep)
			}
			if format == "csv" {
				err = export.ToCSV(rep.Intervals, output)
			} else {
				err = export.ToJSON(rep, output)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(rep.Intervals), output)
			return nil
		},
	}
	period.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
