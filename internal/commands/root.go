// Package commands implements the tasktimer command line. Running the binary
// without a subcommand starts the terminal UI.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tasktimer/internal/config"
	"github.com/sadopc/tasktimer/internal/logstore"
	"github.com/sadopc/tasktimer/internal/screenshot"
	"github.com/sadopc/tasktimer/internal/store"
	"github.com/sadopc/tasktimer/internal/tracker"
	"github.com/sadopc/tasktimer/internal/tui"
)

// Version is set at build time.
var Version = "dev"

// app carries the services shared by every command. They are opened on first
// use so that commands like "config show" never touch the database.
type app struct {
	configPath string
	verbose    bool
	now        func() time.Time

	cfg     config.Config
	logs    io.Closer
	store   *store.Store
	tracker *tracker.Tracker
	active  *tracker.Active
	shots   *screenshot.Manager
}

func (a *app) setup(cmd *cobra.Command, toFile bool) error {
	path := a.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
		a.configPath = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logs, err := config.SetupLogging(cfg, a.verbose, toFile)
	if err != nil {
		return err
	}
	a.logs = logs
	slog.Debug("config loaded", "path", path, "data_dir", cfg.DataDir, "command", cmd.CommandPath())
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.New(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open task database: %w", err)
	}
	a.store = s
	return s, nil
}

func (a *app) openTracker() *tracker.Tracker {
	if a.tracker == nil {
		a.tracker = tracker.New(logstore.New(a.cfg.TimeLogPath())).
			WithClock(a.now).
			WithOverlapLimit(a.cfg.OverlapDisplayLimit)
	}
	return a.tracker
}

// openShots builds the screenshot manager with the stored auto-capture
// settings applied.
func (a *app) openShots(s *store.Store) (*screenshot.Manager, error) {
	if a.shots != nil {
		return a.shots, nil
	}
	if a.active == nil {
		a.active = &tracker.Active{}
	}
	command := a.cfg.CaptureCommand
	if len(command) == 0 {
		command = screenshot.DefaultCommand()
	}
	m := screenshot.NewManager(a.cfg.ScreenshotBaseDir(), screenshot.CommandCapturer{Command: command},
		a.cfg.JPEGQuality, a.active.Project).WithClock(a.now)
	auto := s.AutoscreenSettings()
	if err := m.Update(auto.Enabled, auto.Interval()); err != nil {
		return nil, err
	}
	a.shots = m
	return m, nil
}

func (a *app) close() {
	if a.shots != nil {
		a.shots.Stop()
		a.shots = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("close task database", "error", err)
		}
		a.store = nil
	}
	if a.logs != nil {
		a.logs.Close()
		a.logs = nil
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tasktimer",
		Short:         "Tasks, time tracking and work reports in the terminal",
		Long:          "Keep a task list, time work against it, take periodic screenshots and report where the time went.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so its logs go to a file.
			return a.setup(cmd, cmd.Parent() == nil)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default is the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newReportCmd(a),
		newLogCmd(a),
		newTaskCmd(a),
		newExportCmd(a),
		newScreenshotCmd(a),
		newConfigCmd(a),
	)
	return root
}

func runTUI(a *app) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	t := a.openTracker()
	shots, err := a.openShots(s)
	if err != nil {
		return err
	}

	go func() {
		if _, err := shots.ArchivePreviousMonth(a.cfg.ArchiveAfterDay); err != nil {
			slog.Error("archive screenshots", "error", err)
		}
	}()

	app := tui.NewApp(tui.Deps{
		Store:   s,
		Tracker: t,
		Active:  a.active,
		Shots:   shots,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
