package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/heartbeat/config"
	"github.com/sarchlab/heartbeat/crypt"
	"github.com/sarchlab/heartbeat/fileio"
	"github.com/sarchlab/heartbeat/gamestate"
	"github.com/sarchlab/heartbeat/id"
	"github.com/sarchlab/heartbeat/layout"
	"github.com/sarchlab/heartbeat/logging"
	"github.com/sarchlab/heartbeat/monitoring"
	"github.com/sarchlab/heartbeat/prefs"
	"github.com/sarchlab/heartbeat/timer"
	"github.com/sarchlab/heartbeat/timing"
)

// Builder can be used to build an App.
type Builder struct {
	cfg         config.Config
	logOutput   io.Writer
	backend     prefs.Backend
	storage     fileio.Storage
	clock       timing.Clock
	screen      layout.Screen
	monitorOn   bool
	monitorPort int
	exitHandler bool
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	cfg, err := config.ParseMap(map[string]string{})
	if err != nil {
		panic(err)
	}

	return Builder{}.WithConfig(cfg)
}

// WithConfig replaces the whole configuration. Monitoring follows the
// configuration unless changed afterwards.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	b.monitorOn = cfg.MonitorEnabled
	b.monitorPort = cfg.MonitorPort

	return b
}

// WithLogOutput sets where the log records are written. The default is
// stderr.
func (b Builder) WithLogOutput(w io.Writer) Builder {
	b.logOutput = w
	return b
}

// WithPrefsBackend uses backend instead of the one named in the
// configuration.
func (b Builder) WithPrefsBackend(backend prefs.Backend) Builder {
	b.backend = backend
	return b
}

// WithStorage uses s instead of the storage named in the configuration.
func (b Builder) WithStorage(s fileio.Storage) Builder {
	b.storage = s
	return b
}

// WithClock sets the clock of the loop.
func (b Builder) WithClock(c timing.Clock) Builder {
	b.clock = c
	return b
}

// WithScreen makes the app track the size of screen.
func (b Builder) WithScreen(screen layout.Screen) Builder {
	b.screen = screen
	return b
}

// WithMonitor turns the monitoring server on.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring turns the monitoring server off.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	b.monitorPort = 0

	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithExitHandler terminates the app when the process exits through
// atexit.Exit.
func (b Builder) WithExitHandler() Builder {
	b.exitHandler = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if err := b.cfg.Validate(); err != nil {
		panic(err)
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the app. It fails if a preference backend or a storage named
// in the configuration cannot be opened.
func (b Builder) Build(ctx context.Context) (*App, error) {
	b.parametersMustBeValid()

	a := &App{id: id.NewParallelIDGenerator().Generate()}

	a.buildLogger(b)
	a.buildLoop(b)

	if err := a.buildPrefs(ctx, b); err != nil {
		a.Terminate()
		return nil, err
	}

	if err := a.buildStorage(ctx, b); err != nil {
		a.Terminate()
		return nil, err
	}

	if b.cfg.EncryptionEnabled() {
		e, err := crypt.New(b.cfg.EncryptionSalt, b.cfg.EncryptionIV)
		if err != nil {
			a.Terminate()
			return nil, fmt.Errorf("create encryptor: %w", err)
		}

		a.encryptor = e
	}

	if b.screen != nil {
		a.resolution = layout.NewResolutionMonitor(b.screen, a.logger)
		a.dispatcher.AddHandler(a.resolution)
	}

	if b.monitorOn {
		if err := a.buildMonitor(b); err != nil {
			a.Terminate()
			return nil, err
		}
	}

	if b.exitHandler {
		atexit.Register(a.Terminate)
	}

	a.logger.Info("app built",
		"prefs", b.cfg.PrefsBackend,
		"storage", b.cfg.Storage,
		"monitor", b.monitorOn)

	return a, nil
}

func (a *App) buildLogger(b Builder) {
	a.logFilter = logging.NewFilter()
	for _, c := range b.cfg.MutedComponents {
		a.logFilter.Mute(c)
	}

	a.logger = logging.New(
		logging.WithLevel(b.cfg.Level()),
		logging.WithFormat(logging.Format(b.cfg.LogFormat)),
		logging.WithOutput(b.logOutput),
		logging.WithFilter(a.logFilter),
		logging.WithAttr(
			slog.String("app", b.cfg.InstanceName),
			slog.String("instance", a.id),
		),
	)
}

func (a *App) buildLoop(b Builder) {
	a.dispatcher = timing.NewDispatcher()

	opts := []timing.LoopOption{
		timing.WithFrameRate(b.cfg.FrameRate),
		timing.WithMaxDelta(timing.VTimeInSec(b.cfg.MaxDelta)),
		timing.WithLogger(a.logger.With(logging.Component("loop"))),
	}
	if b.clock != nil {
		opts = append(opts, timing.WithClock(b.clock))
	}

	a.loop = timing.NewLoop(a.dispatcher, opts...)
	a.timers = timer.NewRegistry(a.dispatcher, a.logger.With(logging.Component("timer")))
	a.gameState = gamestate.New(a.logger.With(logging.Component("gamestate")))
}

func (a *App) buildPrefs(ctx context.Context, b Builder) error {
	backend := b.backend

	if backend == nil {
		opened, closer, err := OpenPrefsBackend(ctx, b.cfg)
		if err != nil {
			return err
		}

		if closer != nil {
			a.closers = append(a.closers, closer)
		}

		backend = opened
	}

	a.prefs = prefs.New(backend,
		prefs.WithLogger(a.logger.With(logging.Component("prefs"))),
		prefs.WithTimeout(b.cfg.PrefsTimeout),
	)

	return nil
}

// OpenPrefsBackend opens the preference backend named in cfg. The returned
// closer, when not nil, releases the backend.
func OpenPrefsBackend(ctx context.Context, cfg config.Config) (prefs.Backend, func() error, error) {
	switch cfg.PrefsBackend {
	case config.PrefsSQLite:
		sqlite, err := prefs.NewSQLiteBackend(cfg.PrefsPath)
		if err != nil {
			return nil, nil, err
		}

		return sqlite, sqlite.Close, nil
	case config.PrefsRedis:
		client, err := prefs.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		return prefs.NewRedisBackend(client, cfg.RedisHash), client.Close, nil
	default:
		return prefs.NewMemoryBackend(), nil, nil
	}
}

func (a *App) buildStorage(ctx context.Context, b Builder) error {
	if b.storage != nil {
		a.storage = b.storage
		return nil
	}

	if b.cfg.Storage == config.StorageS3 {
		s, err := fileio.NewS3Storage(ctx, b.cfg.S3)
		if err != nil {
			return err
		}

		a.storage = s

		return nil
	}

	s, err := fileio.NewLocalStorage(b.cfg.DataDir)
	if err != nil {
		return err
	}

	a.storage = s

	return nil
}

func (a *App) buildMonitor(b Builder) error {
	a.monitor = monitoring.NewMonitor(a.loop).
		WithLogger(a.logger).
		WithPortNumber(b.monitorPort)
	a.monitor.RegisterTimers(a.timers)
	a.monitor.RegisterMachine(a.gameState.Machine())

	if _, err := a.monitor.StartServer(); err != nil {
		return err
	}

	if b.cfg.OpenBrowser {
		if err := a.monitor.OpenBrowser(); err != nil {
			a.logger.Warn("failed to open browser", "error", err)
		}
	}

	return nil
}
