// Package config loads runtime settings from the environment.
//
// Settings are read from HEARTBEAT_* variables. A .env file in the working
// directory is loaded first when present; variables already set in the
// process environment take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sarchlab/heartbeat/fileio"
	"github.com/sarchlab/heartbeat/logging"
)

// Prefix is prepended to every variable name.
const Prefix = "HEARTBEAT_"

var (
	// ErrParsingConfig is returned when the environment cannot be parsed.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrLoadingEnvFile is returned when an explicitly named env file cannot
	// be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")

	// ErrInvalidConfig is returned when a parsed value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// Preference backends.
const (
	PrefsMemory = "memory"
	PrefsSQLite = "sqlite"
	PrefsRedis  = "redis"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds every setting of a heartbeat process.
type Config struct {
	FrameRate time.Duration `env:"FRAME_RATE" envDefault:"16ms"`
	MaxDelta  float64       `env:"MAX_DELTA" envDefault:"0.25"` // seconds

	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string   `env:"LOG_FORMAT" envDefault:"text"`
	MutedComponents []string `env:"MUTED_COMPONENTS" envSeparator:","`

	PrefsBackend string        `env:"PREFS_BACKEND" envDefault:"memory"`
	PrefsPath    string        `env:"PREFS_PATH" envDefault:"prefs.db"`
	PrefsTimeout time.Duration `env:"PREFS_TIMEOUT" envDefault:"5s"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisHash    string        `env:"REDIS_HASH" envDefault:"heartbeat:prefs"`

	Storage string          `env:"STORAGE" envDefault:"local"`
	DataDir string          `env:"DATA_DIR" envDefault:"data"`
	S3      fileio.S3Config `envPrefix:"S3_"`

	EncryptionSalt string `env:"ENCRYPTION_SALT"`
	EncryptionIV   string `env:"ENCRYPTION_IV"`

	MonitorEnabled bool   `env:"MONITOR" envDefault:"false"`
	MonitorPort    int    `env:"MONITOR_PORT" envDefault:"0"`
	OpenBrowser    bool   `env:"OPEN_BROWSER" envDefault:"false"`
	InstanceName   string `env:"INSTANCE_NAME" envDefault:"heartbeat"`
}

// Load reads the given env files, or .env when none is named, and parses the
// environment into a Config. A missing default .env file is not an error.
func Load(paths ...string) (Config, error) {
	if err := loadEnvFiles(paths); err != nil {
		return Config{}, err
	}

	return Parse()
}

// MustLoad works like Load but panics on failure.
func MustLoad(paths ...string) Config {
	cfg, err := Load(paths...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}

	return cfg
}

// Parse builds a Config from the process environment only.
func Parse() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// ParseMap builds a Config from vars instead of the process environment.
// Keys include the prefix.
func ParseMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrLoadingEnvFile, err)
		}

		return nil
	}

	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}

	return nil
}

// Validate reports settings that parse but cannot be used.
func (c Config) Validate() error {
	var errs []error

	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: frame rate must be positive", ErrInvalidConfig))
	}

	if c.MaxDelta < 0 {
		errs = append(errs, fmt.Errorf("%w: max delta must not be negative", ErrInvalidConfig))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if !slices.Contains([]logging.Format{logging.FormatText, logging.FormatJSON}, logging.Format(c.LogFormat)) {
		errs = append(errs, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat))
	}

	if !slices.Contains([]string{PrefsMemory, PrefsSQLite, PrefsRedis}, c.PrefsBackend) {
		errs = append(errs, fmt.Errorf("%w: unknown prefs backend %q", ErrInvalidConfig, c.PrefsBackend))
	}

	if !slices.Contains([]string{StorageLocal, StorageS3}, c.Storage) {
		errs = append(errs, fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage))
	}

	if c.Storage == StorageS3 && c.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("%w: s3 storage needs a bucket", ErrInvalidConfig))
	}

	if (c.EncryptionSalt == "") != (c.EncryptionIV == "") {
		errs = append(errs, fmt.Errorf("%w: encryption needs both salt and iv", ErrInvalidConfig))
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		errs = append(errs, fmt.Errorf("%w: monitor port %d out of range", ErrInvalidConfig, c.MonitorPort))
	}

	return errors.Join(errs...)
}

// Level returns the parsed log level, or info when it does not parse.
func (c Config) Level() slog.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}

// EncryptionEnabled reports whether a salt and IV are configured.
func (c Config) EncryptionEnabled() bool {
	return c.EncryptionSalt != "" && c.EncryptionIV != ""
}
