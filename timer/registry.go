// Package timer provides delay timers driven by a timing.Dispatcher.
//
// A Timer accumulates the delta of every tick while it is running and
// notifies its handlers when the delay has elapsed. All the timers created by
// a Registry share its dispatcher and are destroyed together by DestroyAll.
package timer

import (
	"log/slog"

	"github.com/sarchlab/heartbeat/hooking"
	"github.com/sarchlab/heartbeat/id"
	"github.com/sarchlab/heartbeat/timing"
)

// HookPosTimerComplete is triggered on the registry every time one of its
// timers completes. The hook item is the timer.
var HookPosTimerComplete = &hooking.HookPos{Name: "TimerComplete"}

// A Registry owns the active timers of an application.
type Registry struct {
	hooking.HookableBase

	dispatcher  *timing.Dispatcher
	logger      *slog.Logger
	idGenerator id.IDGenerator
	timers      []*Timer
}

// NewRegistry creates a Registry whose timers tick on d.
func NewRegistry(d *timing.Dispatcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		dispatcher:  d,
		logger:      logger,
		idGenerator: id.NewIDGenerator(),
	}
}

// Dispatcher returns the dispatcher the timers tick on.
func (r *Registry) Dispatcher() *timing.Dispatcher {
	return r.dispatcher
}

// Len returns the number of timers in the registry.
func (r *Registry) Len() int {
	return len(r.timers)
}

// Timers returns the timers in the registry, in the order they joined.
func (r *Registry) Timers() []*Timer {
	return append([]*Timer(nil), r.timers...)
}

// Contains returns true if t is in the registry.
func (r *Registry) Contains(t *Timer) bool {
	return r.indexOf(t) >= 0
}

// DestroyAll stops every timer, drops all their handlers and empties the
// registry. Handlers invoked while stopping may safely create or destroy
// timers.
func (r *Registry) DestroyAll() {
	timers := r.timers
	r.timers = nil

	for _, t := range timers {
		t.Stop()
		t.RemoveCallbacks()
	}
}

func (r *Registry) join(t *Timer) {
	if r.Contains(t) {
		return
	}

	r.timers = append(r.timers, t)
}

func (r *Registry) leave(t *Timer) {
	i := r.indexOf(t)
	if i < 0 {
		return
	}

	r.timers = append(r.timers[:i:i], r.timers[i+1:]...)
}

func (r *Registry) indexOf(t *Timer) int {
	for i, x := range r.timers {
		if x == t {
			return i
		}
	}

	return -1
}

func (r *Registry) notifyComplete(t *Timer) {
	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    HookPosTimerComplete,
		Item:   t,
	})
}
