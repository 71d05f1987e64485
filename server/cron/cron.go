// Package cron is the in-process delayed-task executor. Tasks are keyed by
// (name, args); at most one entry is pending per key, and Replace clears the
// previous entry under the same lock that schedules the new one.
package cron

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/imaginehigher/announcements/server/logging"
)

// Handler executes a fired task with the args it was scheduled with.
type Handler func(args ...string)

type entry struct {
	name      string
	args      []string
	timer     *time.Timer
	recurring time.Duration
}

// Executor runs registered handlers at their scheduled wall-clock times.
type Executor struct {
	mu       sync.Mutex
	logger   logging.Logger
	handlers map[string]Handler
	pending  map[string]*entry
	stopped  bool
}

func New(logger logging.Logger) *Executor {
	return &Executor{
		logger:   logger,
		handlers: map[string]Handler{},
		pending:  map[string]*entry{},
	}
}

// Register binds a task name to its handler. Must happen before the first
// schedule of that name.
func (e *Executor) Register(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

// Replace clears any pending task under (name, args) and schedules a new
// one-shot firing at fireAt. Past fire times fire immediately.
func (e *Executor) Replace(name string, fireAt time.Time, args ...string) error {
	key := taskKey(name, args)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errors.New("cron: executor is stopped")
	}

	e.clearLocked(key)

	d := time.Until(fireAt)
	if d < 0 {
		d = 0
	}
	en := &entry{name: name, args: args}
	en.timer = time.AfterFunc(d, func() { e.fire(key, en) })
	e.pending[key] = en

	e.logger.Debugf("cron: scheduled %s(%s) at %s", name, strings.Join(args, ","), fireAt.Format(time.RFC3339))
	return nil
}

// Every schedules a recurring task under (name, args), first firing one
// interval from now. Rescheduling the same key replaces the previous entry.
func (e *Executor) Every(name string, interval time.Duration, args ...string) error {
	if interval <= 0 {
		return errors.Errorf("cron: invalid interval %v for %s", interval, name)
	}
	key := taskKey(name, args)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errors.New("cron: executor is stopped")
	}

	e.clearLocked(key)

	en := &entry{name: name, args: args, recurring: interval}
	en.timer = time.AfterFunc(interval, func() { e.fire(key, en) })
	e.pending[key] = en
	return nil
}

// Clear cancels the pending task under (name, args). Clearing an absent key
// is a no-op.
func (e *Executor) Clear(name string, args ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked(taskKey(name, args))
	return nil
}

// Pending reports whether a task is pending under (name, args).
func (e *Executor) Pending(name string, args ...string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[taskKey(name, args)]
	return ok
}

// Stop cancels every pending task and refuses further scheduling.
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.pending {
		e.clearLocked(key)
	}
	e.stopped = true
}

func (e *Executor) clearLocked(key string) {
	if en, ok := e.pending[key]; ok {
		en.timer.Stop()
		delete(e.pending, key)
	}
}

func (e *Executor) fire(key string, en *entry) {
	e.mu.Lock()
	if e.pending[key] != en {
		// cleared or replaced after the timer went off
		e.mu.Unlock()
		return
	}
	if en.recurring > 0 {
		en.timer = time.AfterFunc(en.recurring, func() { e.fire(key, en) })
	} else {
		delete(e.pending, key)
	}
	h := e.handlers[en.name]
	e.mu.Unlock()

	if h == nil {
		e.logger.Warnf("cron: no handler registered for task %s", en.name)
		return
	}
	h(en.args...)
}

func taskKey(name string, args []string) string {
	return name + "\x1f" + strings.Join(args, "\x1f")
}
