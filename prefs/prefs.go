package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Prefs reads and writes typed preferences through a Backend.
//
// Getters never fail: a missing key, an unparsable value or a backend error
// yields the default, and errors are logged. Setters return the backend
// error.
type Prefs struct {
	backend Backend
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures Prefs.
type Option func(*Prefs)

// WithLogger sets the logger that reports backend errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prefs) {
		p.logger = logger
	}
}

// WithTimeout bounds every backend call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Prefs) {
		p.timeout = d
	}
}

// New creates Prefs on top of b.
func New(b Backend, opts ...Option) *Prefs {
	p := &Prefs{
		backend: b,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Backend returns the backend the preferences are stored in.
func (p *Prefs) Backend() Backend {
	return p.backend
}

func (p *Prefs) ctx() (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), p.timeout)
}

func (p *Prefs) lookup(key string) (string, bool) {
	ctx, cancel := p.ctx()
	defer cancel()

	v, ok, err := p.backend.Get(ctx, key)
	if err != nil {
		p.logger.Error("failed to read preference", "key", key, "error", err)
		return "", false
	}

	return v, ok
}

// GetInt returns the integer stored under key, or def.
func (p *Prefs) GetInt(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		p.logger.Warn("preference is not an integer", "key", key, "value", v)
		return def
	}

	return i
}

// GetBool returns the boolean stored under key, or def. Booleans are stored
// as integers, where any non-zero value is true.
func (p *Prefs) GetBool(key string, def bool) bool {
	defInt := 0
	if def {
		defInt = 1
	}

	return p.GetInt(key, defInt) != 0
}

// GetFloat returns the float stored under key, or def.
func (p *Prefs) GetFloat(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.logger.Warn("preference is not a float", "key", key, "value", v)
		return def
	}

	return f
}

// GetString returns the string stored under key, or def.
func (p *Prefs) GetString(key, def string) string {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}

	return v
}

// SetInt stores an integer under key.
func (p *Prefs) SetInt(key string, value int) error {
	return p.set(key, strconv.Itoa(value))
}

// SetBool stores a boolean under key as 1 or 0.
func (p *Prefs) SetBool(key string, value bool) error {
	if value {
		return p.SetInt(key, 1)
	}

	return p.SetInt(key, 0)
}

// SetFloat stores a float under key.
func (p *Prefs) SetFloat(key string, value float64) error {
	return p.set(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// SetString stores a string under key.
func (p *Prefs) SetString(key, value string) error {
	return p.set(key, value)
}

func (p *Prefs) set(key, value string) error {
	ctx, cancel := p.ctx()
	defer cancel()

	if err := p.backend.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}

	return nil
}

// HasKey returns true if a value is stored under key.
func (p *Prefs) HasKey(key string) bool {
	_, ok := p.lookup(key)
	return ok
}

// Delete removes key.
func (p *Prefs) Delete(key string) error {
	ctx, cancel := p.ctx()
	defer cancel()

	if err := p.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}

	return nil
}

// DeleteAll removes every preference.
func (p *Prefs) DeleteAll() error {
	ctx, cancel := p.ctx()
	defer cancel()

	if err := p.backend.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all preferences: %w", err)
	}

	return nil
}

// Save persists the changes made so far.
func (p *Prefs) Save() error {
	ctx, cancel := p.ctx()
	defer cancel()

	if err := p.backend.Flush(ctx); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	return nil
}
