package tracker

import (
	"sync"
	"time"
)

// Active holds the task a timer is currently running for. It is shared
// between the UI and the background screenshot scheduler.
type Active struct {
	mu      sync.RWMutex
	task    Task
	started time.Time
	running bool
}

func (a *Active) Set(task Task, started time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task, a.started, a.running = task, started, true
}

func (a *Active) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task, a.started, a.running = Task{}, time.Time{}, false
}

// Get returns the running task and its start time.
func (a *Active) Get() (Task, time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.task, a.started, a.running
}

// Project returns the running task's project, or "" when idle.
func (a *Active) Project() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running {
		return ""
	}
	return a.task.Project
}
