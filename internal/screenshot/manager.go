package screenshot

import (
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// FileTimeLayout names capture files; the date prefix drives archiving.
const FileTimeLayout = "2006-01-02_15-04-05"

// DefaultProject is the folder used when no project is known.
const DefaultProject = "General"

// captureTimeout bounds a single capture command.
const captureTimeout = 30 * time.Second

// Manager saves screenshots and runs the periodic capture schedule.
type Manager struct {
	baseDir  string
	capturer Capturer
	quality  int
	project  func() string
	now      func() time.Time

	mu       sync.Mutex
	sched    *cron.Cron
	enabled  bool
	interval time.Duration
	running  bool
}

// NewManager returns a manager writing under baseDir. project is asked for
// the current project on every scheduled capture.
func NewManager(baseDir string, c Capturer, quality int, project func() string) *Manager {
	if project == nil {
		project = func() string { return "" }
	}
	return &Manager{
		baseDir:  baseDir,
		capturer: c,
		quality:  quality,
		project:  project,
		now:      time.Now,
		enabled:  true,
		interval: 15 * time.Minute,
	}
}

func (m *Manager) BaseDir() string { return m.baseDir }

// WithClock replaces the clock used for file names and archiving.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Take captures the screen into <base>/<project>/<timestamp>.jpg and returns
// the file path.
func (m *Manager) Take(ctx context.Context, project string) (string, error) {
	img, err := m.capturer.Capture(ctx)
	if err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}

	dir := filepath.Join(m.baseDir, folderName(project))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot directory: %w", err)
	}
	path := filepath.Join(dir, m.now().Format(FileTimeLayout)+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create screenshot: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: m.quality}); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close screenshot: %w", err)
	}
	slog.Debug("screenshot saved", "path", path)
	return path, nil
}

// folderName maps a project to a single safe directory name.
func folderName(project string) string {
	project = strings.TrimSpace(project)
	project = strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(project)
	if project == "" || project == "." || project == ".." || project == archiveDirName {
		return DefaultProject
	}
	return project
}

// Start begins periodic capture if auto capture is enabled. It is a no-op
// when already running.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return m.scheduleLocked()
}

// Stop halts periodic capture.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.unscheduleLocked()
}

// Update applies new settings. A running schedule is rebuilt with the new
// interval, or stopped when auto capture was disabled.
func (m *Manager) Update(enabled bool, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
	if interval >= time.Minute {
		m.interval = interval
	}
	m.unscheduleLocked()
	if m.running {
		return m.scheduleLocked()
	}
	return nil
}

// Scheduled reports whether periodic capture is active.
func (m *Manager) Scheduled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched != nil
}

func (m *Manager) scheduleLocked() error {
	if !m.enabled || m.sched != nil {
		return nil
	}
	c := cron.New()
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := c.AddFunc(spec, m.captureNow); err != nil {
		return fmt.Errorf("schedule screenshots: %w", err)
	}
	c.Start()
	m.sched = c
	slog.Info("auto screenshots started", "every", m.interval)
	return nil
}

func (m *Manager) unscheduleLocked() {
	if m.sched == nil {
		return
	}
	m.sched.Stop()
	m.sched = nil
	slog.Info("auto screenshots stopped")
}

func (m *Manager) captureNow() {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()
	if _, err := m.Take(ctx, m.project()); err != nil {
		slog.Warn("auto screenshot failed", "error", err)
	}
}
