// Package prefs stores user preferences as string values and exposes typed
// accessors with defaults on top of them.
package prefs

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("preference backend is closed")

// A Backend stores preference values.
type Backend interface {
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteAll removes every key.
	DeleteAll(ctx context.Context) error

	// Flush persists the changes made so far.
	Flush(ctx context.Context) error
}

// MemoryBackend keeps preferences in memory. It is safe for concurrent use.
type MemoryBackend struct {
	lock   sync.RWMutex
	values map[string]string
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Get returns the value of key.
func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	v, ok := b.values[key]

	return v, ok, nil
}

// Set stores value under key.
func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.values[key] = value

	return nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	delete(b.values, key)

	return nil
}

// DeleteAll removes every key.
func (b *MemoryBackend) DeleteAll(_ context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.values = make(map[string]string)

	return nil
}

// Flush does nothing.
func (b *MemoryBackend) Flush(_ context.Context) error {
	return nil
}

// Len returns the number of keys stored.
func (b *MemoryBackend) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.values)
}
