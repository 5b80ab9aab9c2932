package timer

import (
	"github.com/sarchlab/heartbeat/gamestate"
	"github.com/sarchlab/heartbeat/statemachine"
	"github.com/sarchlab/heartbeat/timing"
)

// A ProgressHandler is notified on every tick of a running timer that does
// not complete it.
type ProgressHandler struct {
	fn func(progress float64)
}

// NewProgressHandler wraps fn. The progress is the elapsed fraction of the
// delay, in [0, 1).
func NewProgressHandler(fn func(progress float64)) *ProgressHandler {
	return &ProgressHandler{fn: fn}
}

// Invoke calls the wrapped function.
func (h *ProgressHandler) Invoke(progress float64) {
	if h.fn != nil {
		h.fn(progress)
	}
}

// Option configures a Timer.
type Option func(*Timer)

// WithRepeat makes the timer start over every time it completes.
func WithRepeat() Option {
	return func(t *Timer) {
		t.repeat = true
	}
}

// WithAutoDestroy makes a non-repeating timer destroy itself when it
// completes.
func WithAutoDestroy() Option {
	return func(t *Timer) {
		t.autoDestroy = true
	}
}

// WithCompleteHandler adds a handler invoked when the timer completes.
func WithCompleteHandler(cb *statemachine.Callback) Option {
	return func(t *Timer) {
		t.AddCompleteHandler(cb)
	}
}

// WithProgressHandler adds a handler invoked on every tick that does not
// complete the timer.
func WithProgressHandler(h *ProgressHandler) Option {
	return func(t *Timer) {
		t.AddProgressHandler(h)
	}
}

// A Timer invokes its complete handlers after a delay.
//
// A timer is Ready after creation and after Reset, Running after Start, and
// Stopped after Stop. It is registered on the dispatcher if and only if it is
// Running.
type Timer struct {
	id          string
	registry    *Registry
	delay       timing.VTimeInSec
	elapsed     timing.VTimeInSec
	repeat      bool
	autoDestroy bool

	machine    *statemachine.StateMachine
	onComplete []*statemachine.Callback
	onProgress []*ProgressHandler
}

// NewTimer creates a Ready timer with the given delay in seconds. The timer
// joins the registry when it starts.
func (r *Registry) NewTimer(delay timing.VTimeInSec, opts ...Option) *Timer {
	t := &Timer{
		id:       r.idGenerator.Generate(),
		registry: r,
		delay:    delay,
		machine:  statemachine.New("timer"),
	}

	t.machine.AddState(gamestate.Running, nil, nil)
	t.machine.AddState(gamestate.Stopped, nil, nil)
	t.machine.AddState(gamestate.Ready, nil, nil)
	t.machine.UpdateState(gamestate.Ready)

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ID returns the unique ID of the timer within its registry.
func (t *Timer) ID() string {
	return t.id
}

// Delay returns the delay of the timer.
func (t *Timer) Delay() timing.VTimeInSec {
	return t.delay
}

// SetDelay changes the delay. A running timer completes on its next tick if
// the elapsed time already exceeds the new delay.
func (t *Timer) SetDelay(delay timing.VTimeInSec) {
	t.delay = delay
}

// Elapsed returns the time accumulated since the timer was last reset.
func (t *Timer) Elapsed() timing.VTimeInSec {
	return t.elapsed
}

// State returns the name of the state of the timer: gamestate.Ready,
// gamestate.Running or gamestate.Stopped.
func (t *Timer) State() string {
	return t.machine.CurrentName()
}

// IsRunning returns true if the timer is counting.
func (t *Timer) IsRunning() bool {
	return t.machine.IsState(gamestate.Running)
}

// TimeRemaining returns the time left before completion, or 0 if the timer is
// not running.
func (t *Timer) TimeRemaining() timing.VTimeInSec {
	if !t.IsRunning() {
		return 0
	}

	return t.left()
}

func (t *Timer) left() timing.VTimeInSec {
	left := t.delay - t.elapsed
	if left < 0 {
		return 0
	}

	return left
}

// Start starts counting. A stopped timer resumes from the time it had already
// accumulated. Starting a running timer logs a warning and does nothing.
func (t *Timer) Start() {
	if t.IsRunning() {
		t.registry.logger.Warn("timer started while already running",
			"timer", t.id)
		return
	}

	t.registry.join(t)
	t.registry.dispatcher.AddHandler(t)
	t.machine.UpdateState(gamestate.Running)
}

// Handle accumulates the tick delta and completes the timer once the delay
// has elapsed. A complete handler that stops, resets or destroys the timer
// takes precedence over the repeat and auto-destroy options.
func (t *Timer) Handle(ctx timing.FrameCtx) {
	if !t.IsRunning() {
		return
	}

	t.elapsed += ctx.Delta

	if t.elapsed >= t.delay {
		t.complete()
		return
	}

	progress := float64(t.elapsed / t.delay)
	for _, h := range t.onProgress {
		h.Invoke(progress)
	}
}

func (t *Timer) complete() {
	for _, cb := range t.onComplete {
		cb.Invoke()
	}

	t.registry.notifyComplete(t)

	if !t.IsRunning() {
		return
	}

	switch {
	case t.repeat:
		t.Reset()
		t.Start()
	case t.autoDestroy:
		t.Destroy()
	default:
		t.registry.leave(t)
		t.Reset()
	}
}

// Stop pauses the timer. The elapsed time is kept.
func (t *Timer) Stop() {
	t.registry.dispatcher.RemoveHandler(t)
	t.machine.UpdateState(gamestate.Stopped)
}

// Reset zeroes the elapsed time and moves the timer back to Ready. Start is
// needed to count again.
func (t *Timer) Reset() {
	t.elapsed = 0
	t.registry.dispatcher.RemoveHandler(t)
	t.machine.UpdateState(gamestate.Ready)
}

// Restart zeroes the elapsed time without changing the state of the timer.
func (t *Timer) Restart() {
	t.elapsed = 0
}

// Destroy drops all the handlers, stops the timer and removes it from the
// registry.
func (t *Timer) Destroy() {
	t.RemoveCallbacks()
	t.registry.leave(t)
	t.Stop()
}

// RemoveCallbacks drops all the complete and progress handlers.
func (t *Timer) RemoveCallbacks() {
	t.onComplete = nil
	t.onProgress = nil
}

// AddCompleteHandler adds cb unless it is already added.
func (t *Timer) AddCompleteHandler(cb *statemachine.Callback) {
	if cb == nil {
		return
	}

	t.RemoveCompleteHandler(cb)
	t.onComplete = append(t.onComplete, cb)
}

// RemoveCompleteHandler removes cb.
func (t *Timer) RemoveCompleteHandler(cb *statemachine.Callback) {
	for i, x := range t.onComplete {
		if x == cb {
			t.onComplete = append(t.onComplete[:i:i], t.onComplete[i+1:]...)
			return
		}
	}
}

// AddProgressHandler adds h unless it is already added.
func (t *Timer) AddProgressHandler(h *ProgressHandler) {
	if h == nil {
		return
	}

	t.RemoveProgressHandler(h)
	t.onProgress = append(t.onProgress, h)
}

// RemoveProgressHandler removes h.
func (t *Timer) RemoveProgressHandler(h *ProgressHandler) {
	for i, x := range t.onProgress {
		if x == h {
			t.onProgress = append(t.onProgress[:i:i], t.onProgress[i+1:]...)
			return
		}
	}
}
