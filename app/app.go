// Package app assembles the heartbeat runtime: a frame loop with its
// dispatcher, timers, the game state, preferences, storage and, optionally,
// the monitoring server.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sarchlab/heartbeat/crypt"
	"github.com/sarchlab/heartbeat/fileio"
	"github.com/sarchlab/heartbeat/gamestate"
	"github.com/sarchlab/heartbeat/hooking"
	"github.com/sarchlab/heartbeat/layout"
	"github.com/sarchlab/heartbeat/logging"
	"github.com/sarchlab/heartbeat/monitoring"
	"github.com/sarchlab/heartbeat/persistence"
	"github.com/sarchlab/heartbeat/prefs"
	"github.com/sarchlab/heartbeat/statemachine"
	"github.com/sarchlab/heartbeat/timer"
	"github.com/sarchlab/heartbeat/timing"
)

const shutdownTimeout = 5 * time.Second

// An App owns the services of a heartbeat process.
type App struct {
	id        string
	logger    *slog.Logger
	logFilter *logging.Filter

	dispatcher *timing.Dispatcher
	loop       *timing.Loop
	timers     *timer.Registry
	gameState  *gamestate.GameState
	resolution *layout.ResolutionMonitor

	prefs     *prefs.Prefs
	storage   fileio.Storage
	encryptor *crypt.Encryptor
	monitor   *monitoring.Monitor

	closers       []func() error
	terminateOnce sync.Once
}

// ID returns the unique ID of the app instance.
func (a *App) ID() string {
	return a.id
}

// Logger returns the root logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// LogFilter returns the filter that mutes log components at run time.
func (a *App) LogFilter() *logging.Filter {
	return a.logFilter
}

// Dispatcher returns the frame dispatcher.
func (a *App) Dispatcher() *timing.Dispatcher {
	return a.dispatcher
}

// Loop returns the frame loop.
func (a *App) Loop() *timing.Loop {
	return a.loop
}

// Timers returns the registry that creates and tracks timers.
func (a *App) Timers() *timer.Registry {
	return a.timers
}

// GameState returns the game state.
func (a *App) GameState() *gamestate.GameState {
	return a.gameState
}

// Resolution returns the resolution monitor, or nil without a screen.
func (a *App) Resolution() *layout.ResolutionMonitor {
	return a.resolution
}

// Prefs returns the preference store.
func (a *App) Prefs() *prefs.Prefs {
	return a.prefs
}

// Storage returns the storage of persistent data files.
func (a *App) Storage() fileio.Storage {
	return a.storage
}

// Encryptor returns the encryptor, or nil when encryption is not configured.
func (a *App) Encryptor() *crypt.Encryptor {
	return a.encryptor
}

// Monitor returns the monitor, or nil when monitoring is off.
func (a *App) Monitor() *monitoring.Monitor {
	return a.monitor
}

// NewStateMachine creates a state machine that is visible to the monitor
// and whose transitions are logged at debug level.
func (a *App) NewStateMachine(name string) *statemachine.StateMachine {
	sm := statemachine.New(name)
	sm.AcceptHook(hooking.NewLogHook(
		a.logger.With(logging.Component("statemachine")),
		statemachine.HookPosStateChange,
	))

	if a.monitor != nil {
		a.monitor.RegisterMachine(sm)
	}

	return sm
}

// NewData creates a persistent data file of type T that backs up into the
// app's preferences and is encrypted when the app has an encryptor.
func NewData[T any](a *App, opts ...persistence.Option) *persistence.Data[T] {
	base := []persistence.Option{
		persistence.WithPrefs(a.prefs),
		persistence.WithLogger(a.logger),
	}
	if a.encryptor != nil {
		base = append(base, persistence.WithEncryptor(a.encryptor))
	}

	return persistence.New[T](a.storage, append(base, opts...)...)
}

// Run drives the loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("loop started", "frame_rate", a.loop.FrameRate())

	err := a.loop.Run(ctx)

	a.logger.Info("loop stopped", "frame", a.dispatcher.Frame())

	return err
}

// Terminate destroys the timers, clears the dispatcher and the game state,
// saves the preferences, releases every resource the app opened and unmutes
// all log components. Only the first call has an effect. Call it after
// Run returns.
func (a *App) Terminate() {
	a.terminateOnce.Do(a.terminate)
}

func (a *App) terminate() {
	if a.timers != nil {
		a.timers.DestroyAll()
	}

	if a.monitor != nil {
		a.monitor.Detach()
	}

	if a.dispatcher != nil {
		a.dispatcher.Clear()
	}

	if a.gameState != nil {
		a.gameState.Destroy()
	}

	if a.prefs != nil {
		if err := a.prefs.Save(); err != nil {
			a.logger.Error("failed to save preferences", "error", err)
		}
	}

	if a.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.monitor.Shutdown(ctx); err != nil {
			a.logger.Error("failed to stop monitor", "error", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}

	a.closers = nil

	a.logger.Info("app terminated")

	if a.logFilter != nil {
		a.logFilter.Clear()
	}
}
