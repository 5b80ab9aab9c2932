package timing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameRate is the frame interval used when none is configured.
const DefaultFrameRate = 16667 * time.Microsecond

// A Loop feeds a Dispatcher with ticks at a fixed rate. The delta of each
// tick is the wall-clock time since the previous tick, measured by a Clock.
//
// All the handlers of the dispatcher run on the goroutine that calls Run.
// Other goroutines interact with the loop through Do, Pause and Continue.
type Loop struct {
	dispatcher *Dispatcher
	clock      Clock
	frameRate  time.Duration
	maxDelta   VTimeInSec
	logger     *slog.Logger

	paused  atomic.Bool
	running atomic.Bool

	tasksLock sync.Mutex
	tasks     []func()

	last time.Time
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameRate sets the interval between two ticks.
func WithFrameRate(rate time.Duration) LoopOption {
	return func(l *Loop) {
		l.frameRate = rate
	}
}

// WithClock sets the clock used to measure tick durations.
func WithClock(c Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithMaxDelta caps the delta of a single tick. Long stalls, such as a
// debugger break, then do not make timers jump.
func WithMaxDelta(d VTimeInSec) LoopOption {
	return func(l *Loop) {
		l.maxDelta = d
	}
}

// WithLogger sets the logger that reports recovered panics.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a Loop that drives d.
func NewLoop(d *Dispatcher, opts ...LoopOption) *Loop {
	l := &Loop{
		dispatcher: d,
		clock:      SystemClock{},
		frameRate:  DefaultFrameRate,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.frameRate <= 0 {
		panic("frame rate must be positive")
	}

	return l
}

// Dispatcher returns the dispatcher driven by the loop.
func (l *Loop) Dispatcher() *Dispatcher {
	return l.dispatcher
}

// FrameRate returns the interval between two ticks.
func (l *Loop) FrameRate() time.Duration {
	return l.frameRate
}

// Run ticks the dispatcher until ctx is cancelled. It returns ctx.Err() when
// stopped by the context and an error if the loop is already running.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("loop is already running")
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.frameRate)
	defer ticker.Stop()

	l.last = l.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step runs the queued tasks and, unless the loop is paused, dispatches one
// tick with the time elapsed since the previous step. A panic in a handler is
// logged and the rest of the frame is skipped. A panicking task is logged and
// the remaining tasks still run.
func (l *Loop) Step() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("frame aborted by panic",
				"frame", l.dispatcher.Frame(),
				"panic", r,
			)
		}
	}()

	l.runTasks()

	now := l.clock.Now()
	if l.last.IsZero() {
		l.last = now
	}

	delta := VTimeInSec(now.Sub(l.last).Seconds())
	l.last = now

	if l.paused.Load() {
		return
	}

	if l.maxDelta > 0 && delta > l.maxDelta {
		delta = l.maxDelta
	}

	l.dispatcher.Tick(delta)
}

// Do queues f to run on the loop goroutine before the next tick.
func (l *Loop) Do(f func()) {
	l.tasksLock.Lock()
	defer l.tasksLock.Unlock()

	l.tasks = append(l.tasks, f)
}

func (l *Loop) runTasks() {
	l.tasksLock.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.tasksLock.Unlock()

	for _, t := range tasks {
		l.runTask(t)
	}
}

func (l *Loop) runTask(t func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task aborted by panic",
				"frame", l.dispatcher.Frame(),
				"panic", r,
			)
		}
	}()

	t()
}

// Pause stops dispatching ticks. Time passed while paused is not reported to
// the handlers.
func (l *Loop) Pause() {
	l.paused.Store(true)
}

// Continue resumes dispatching ticks.
func (l *Loop) Continue() {
	l.paused.Store(false)
}

// IsPaused returns true if the loop is paused.
func (l *Loop) IsPaused() bool {
	return l.paused.Load()
}

// IsRunning returns true while Run is executing.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}
