package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/tracker"
)

var (
	errTaskNotFound  = errors.New("no task with that id")
	errAmbiguousTask = errors.New("task id prefix matches more than one task")
)

// shortIDLen is how much of a task id the listings show. Any unique prefix is
// accepted wherever a task id is expected.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// findTask resolves a full task id or a unique prefix of one.
func findTask(s *store.Store, id string) (store.Task, error) {
	if t, err := s.GetTask(id); err == nil {
		return *t, nil
	}
	tasks, err := s.ListTasks(false)
	if err != nil {
		return store.Task{}, err
	}
	var found []store.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, id) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return store.Task{}, fmt.Errorf("%q: %w", id, errTaskNotFound)
	case 1:
		return found[0], nil
	}
	return store.Task{}, fmt.Errorf("%q: %w", id, errAmbiguousTask)
}

func trackerTask(t store.Task) tracker.Task {
	return tracker.Task{ID: t.ID, Text: t.Text, Project: t.Project, Section: t.Section}
}

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage the task list",
	}
	cmd.AddCommand(
		newTaskListCmd(a),
		newTaskAddCmd(a),
		newTaskDoneCmd(a),
		newTaskRemoveCmd(a),
		newTaskImportCmd(a),
	)
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			tasks, err := s.ListTasks(!all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			today := a.now()
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				state := ""
				switch {
				case t.Done:
					state = "done"
				case t.Overdue(today):
					state = "overdue"
				}
				deadline := ""
				if t.Deadline != nil {
					deadline = t.Deadline.Format(store.DateLayout)
				}
				rows = append(rows, []string{shortID(t.ID), t.Text, t.Project, t.Section, deadline, state})
			}
			fmt.Fprintln(out, newTable("ID", "Task", "Project", "Section", "Deadline", "").Rows(rows...).Render())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var in store.TaskInput
	var deadline string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			in.Text = strings.Join(args, " ")
			if in.Project == "" {
				in.Project = s.DefaultProjectName()
			}
			if deadline != "" {
				d, err := time.ParseInLocation(store.DateLayout, deadline, time.Local)
				if err != nil {
					return fmt.Errorf("--deadline %q: want YYYY-MM-DD", deadline)
				}
				in.Deadline = &d
			}
			t, err := s.CreateTask(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q to %s\n", shortID(t.ID), t.Text, t.Project)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Project, "project", "p", "", "project (default from settings)")
	cmd.Flags().StringVarP(&in.Section, "section", "s", "", "section within the project")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&in.Note, "note", "n", "", "free-form note")
	return cmd
}

func newTaskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done, or open again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			t, err := findTask(s, args[0])
			if err != nil {
				return err
			}
			done, err := s.ToggleDone(t.ID)
			if err != nil {
				return err
			}
			state := "reopened"
			if done {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q %s\n", t.Text, state)
			return nil
		},
	}
}

func newTaskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a task (its logged time is kept)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			t, err := findTask(s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteTask(t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", t.Text)
			return nil
		},
	}
}

func newTaskImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tasks.json>",
		Short: "Import tasks from a JSON task list",
		Long:  "Import a JSON array of tasks. Tasks whose id already exists are updated.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tasks, err := store.ParseLegacyTasks(data)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			n, err := s.ImportTasks(tasks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s)\n", n)
			return nil
		},
	}
}
