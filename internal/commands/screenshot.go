package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScreenshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "screenshot",
		Aliases: []string{"shot"},
		Short:   "Take and archive screenshots",
	}
	cmd.AddCommand(newScreenshotNowCmd(a), newScreenshotArchiveCmd(a))
	return cmd
}

func newScreenshotNowCmd(a *app) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Take a screenshot into a project's folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			shots, err := a.openShots(s)
			if err != nil {
				return err
			}
			if project == "" {
				project = s.DefaultProjectName()
			}
			path, err := shots.Take(cmd.Context(), project)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project folder (default from settings)")
	return cmd
}

func newScreenshotArchiveCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Zip last month's screenshots",
		Long:  "Pack last month's screenshots into archives/YYYY-MM.zip and remove the originals. Without --force this only happens from the configured day of the month.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			shots, err := a.openShots(s)
			if err != nil {
				return err
			}
			afterDay := a.cfg.ArchiveAfterDay
			if force {
				afterDay = 1
			}
			res, err := shots.ArchivePreviousMonth(afterDay)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Path == "" {
				fmt.Fprintf(out, "Nothing to archive for %s\n", res.Month)
				return nil
			}
			fmt.Fprintf(out, "Archived %d file(s) to %s\n", res.Files, res.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "archive regardless of the day of the month")
	return cmd
}
