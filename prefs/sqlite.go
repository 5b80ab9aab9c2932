package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/tebeka/atexit"
)

// SQLiteBackend stores preferences in a SQLite table. Changes are buffered in
// memory until Flush, which also runs when the process exits through atexit.
type SQLiteBackend struct {
	lock sync.Mutex
	db   *sql.DB

	// pending maps keys to their new value. A nil value marks a deletion.
	pending  map[string]*string
	clearAll bool
	closed   bool
}

// NewSQLiteBackend opens or creates the database file at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open preference database %s: %w", path, err)
	}

	b, err := NewSQLiteBackendWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// NewSQLiteBackendWithDB uses an existing database connection.
func NewSQLiteBackendWithDB(db *sql.DB) (*SQLiteBackend, error) {
	b := &SQLiteBackend{
		db:      db,
		pending: make(map[string]*string),
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`)
	if err != nil {
		return nil, fmt.Errorf("create preference table: %w", err)
	}

	atexit.Register(func() { _ = b.Flush(context.Background()) })

	return b, nil
}

// Get returns the buffered value of key, or the stored one.
func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return "", false, ErrClosed
	}

	if v, found := b.pending[key]; found {
		if v == nil {
			return "", false, nil
		}

		return *v, true, nil
	}

	if b.clearAll {
		return "", false, nil
	}

	var value string

	err := b.db.QueryRowContext(ctx,
		"SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("query preference %q: %w", key, err)
	}

	return value, true, nil
}

// Set buffers a new value for key.
func (b *SQLiteBackend) Set(_ context.Context, key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.pending[key] = &value

	return nil
}

// Delete buffers the removal of key.
func (b *SQLiteBackend) Delete(_ context.Context, key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.pending[key] = nil

	return nil
}

// DeleteAll drops the buffered changes and buffers the removal of every key.
func (b *SQLiteBackend) DeleteAll(_ context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.pending = make(map[string]*string)
	b.clearAll = true

	return nil
}

// Flush writes the buffered changes in one transaction.
func (b *SQLiteBackend) Flush(ctx context.Context) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return ErrClosed
	}

	return b.flush(ctx)
}

func (b *SQLiteBackend) flush(ctx context.Context) error {
	if len(b.pending) == 0 && !b.clearAll {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preference transaction: %w", err)
	}

	if err := b.writeChanges(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}

	b.pending = make(map[string]*string)
	b.clearAll = false

	return nil
}

func (b *SQLiteBackend) writeChanges(ctx context.Context, tx *sql.Tx) error {
	if b.clearAll {
		if _, err := tx.ExecContext(ctx, "DELETE FROM prefs"); err != nil {
			return fmt.Errorf("clear preferences: %w", err)
		}
	}

	for key, value := range b.pending {
		var err error

		if value == nil {
			_, err = tx.ExecContext(ctx, "DELETE FROM prefs WHERE key = ?", key)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO prefs (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
				key, *value)
		}

		if err != nil {
			return fmt.Errorf("write preference %q: %w", key, err)
		}
	}

	return nil
}

// Close flushes the buffered changes and closes the database.
func (b *SQLiteBackend) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return nil
	}

	flushErr := b.flush(context.Background())
	b.closed = true

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close preference database: %w", err)
	}

	return flushErr
}
