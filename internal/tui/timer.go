package tui

import (
	"time"

	"github.com/sadopc/tasktimer/internal/tracker"
)

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel measures work on one task. Every running stretch is written to
// the time log as its own interval when the timer is paused or stopped, so a
// pause leaves a gap in the log instead of a shortened duration.
type timerModel struct {
	tracker *tracker.Tracker
	active  *tracker.Active

	state    timerState
	task     tracker.Task
	segStart time.Time     // start of the stretch currently running
	banked   time.Duration // recorded stretches of this session
}

func newTimerModel(t *tracker.Tracker, a *tracker.Active) timerModel {
	return timerModel{
		tracker: t,
		active:  a,
		state:   timerStopped,
	}
}

func (t *timerModel) start(task tracker.Task) error {
	if t.state != timerStopped {
		if _, err := t.stop(); err != nil {
			return err
		}
	}
	t.state = timerRunning
	t.task = task
	t.segStart = t.tracker.Now()
	t.banked = 0
	t.active.Set(task, t.segStart)
	return nil
}

// stop records the running stretch, if any, and returns the session total.
func (t *timerModel) stop() (time.Duration, error) {
	if t.state == timerStopped {
		return 0, nil
	}
	if t.state == timerRunning {
		if err := t.record(); err != nil {
			return 0, err
		}
	}
	total := t.banked
	t.state = timerStopped
	t.banked = 0
	t.active.Clear()
	return total, nil
}

func (t *timerModel) pause() error {
	if t.state != timerRunning {
		return nil
	}
	if err := t.record(); err != nil {
		return err
	}
	t.state = timerPaused
	t.active.Clear()
	return nil
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.state = timerRunning
	t.segStart = t.tracker.Now()
	t.active.Set(t.task, t.segStart)
}

func (t *timerModel) toggle() error {
	switch t.state {
	case timerRunning:
		return t.pause()
	case timerPaused:
		t.resume()
	}
	return nil
}

func (t *timerModel) record() error {
	end := t.tracker.Now()
	if err := t.tracker.RecordTimer(t.task, t.segStart, end); err != nil {
		return err
	}
	t.banked += end.Truncate(time.Second).Sub(t.segStart.Truncate(time.Second))
	return nil
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	if t.state == timerRunning {
		return t.banked + t.tracker.Now().Sub(t.segStart)
	}
	return t.banked
}
