// Package config loads the tasktimer YAML configuration and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/tasktimer/internal/store"
)

// Config holds file locations and tuning knobs. Every field has a default, so
// an empty or missing config file is valid.
type Config struct {
	DataDir             string   `yaml:"data_dir"`
	TimeLog             string   `yaml:"time_log,omitempty"`
	DBFile              string   `yaml:"db_file,omitempty"`
	LogFile             string   `yaml:"log_file,omitempty"`
	ScreenshotDir       string   `yaml:"screenshot_dir,omitempty"`
	JPEGQuality         int      `yaml:"jpeg_quality"`
	OverlapDisplayLimit int      `yaml:"overlap_display_limit"`
	ArchiveAfterDay     int      `yaml:"archive_after_day"`
	CaptureCommand      []string `yaml:"capture_command,omitempty,flow"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	dataDir, err := store.DefaultDataDir()
	if err != nil {
		dataDir = "."
	}
	return Config{
		DataDir:             dataDir,
		JPEGQuality:         70,
		OverlapDisplayLimit: 10,
		ArchiveAfterDay:     10,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tasktimer/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tasktimer", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory when needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality %d: must be 1..100", c.JPEGQuality)
	}
	if c.OverlapDisplayLimit < 1 {
		return fmt.Errorf("overlap_display_limit %d: must be positive", c.OverlapDisplayLimit)
	}
	if c.ArchiveAfterDay < 1 || c.ArchiveAfterDay > 28 {
		return fmt.Errorf("archive_after_day %d: must be 1..28", c.ArchiveAfterDay)
	}
	return nil
}

func (c Config) TimeLogPath() string       { return c.resolve(c.TimeLog, "time_log.json") }
func (c Config) DBPath() string            { return c.resolve(c.DBFile, "tasks.db") }
func (c Config) LogPath() string           { return c.resolve(c.LogFile, "tasktimer.log") }
func (c Config) ScreenshotBaseDir() string { return c.resolve(c.ScreenshotDir, "screenshots") }

// resolve returns p, or name under DataDir when p is empty. Relative paths
// are taken relative to DataDir.
func (c Config) resolve(p, name string) string {
	if p == "" {
		return filepath.Join(c.DataDir, name)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// SetupLogging installs the default slog logger. With toFile set, records go
// to the configured log file, since the terminal belongs to the TUI; the
// returned closer must then be called on exit.
func SetupLogging(cfg Config, verbose, toFile bool) (io.Closer, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if toFile {
		path := cfg.LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	} else if !verbose {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
