// Package persistence keeps a typed document in a file, optionally encrypted
// and mirrored into a preference key as a backup.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sarchlab/heartbeat/crypt"
	"github.com/sarchlab/heartbeat/fileio"
	"github.com/sarchlab/heartbeat/logging"
	"github.com/sarchlab/heartbeat/prefs"
)

var (
	// ErrNotFound is returned by LoadFile when neither the file nor the
	// backup holds a document. The document is then reset to its default.
	ErrNotFound = errors.New("persistent data not found")

	// ErrNoPath is returned when saving or deleting before a path is set.
	ErrNoPath = errors.New("no file path set")

	// ErrNoEncryptor is returned when loading encrypted data without an
	// encryptor.
	ErrNoEncryptor = errors.New("no encryptor configured")
)

// Option configures a Data.
type Option func(*config)

type config struct {
	prefs     *prefs.Prefs
	encryptor *crypt.Encryptor
	codec     Codec
	logger    *slog.Logger
}

// WithPrefs sets the preferences that hold the backup copy.
func WithPrefs(p *prefs.Prefs) Option {
	return func(c *config) { c.prefs = p }
}

// WithEncryptor encrypts the saved document.
func WithEncryptor(e *crypt.Encryptor) Option {
	return func(c *config) { c.encryptor = e }
}

// WithCodec sets the document format. The default is JSON.
func WithCodec(codec Codec) Option {
	return func(c *config) { c.codec = codec }
}

// WithLogger sets the logger that reports failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Data is a document of type T stored in a file.
type Data[T any] struct {
	config

	storage  fileio.Storage
	notFound func() T

	path      string
	backupKey string
	raw       string
	value     T
}

// New creates a Data that reads and writes files through storage.
func New[T any](storage fileio.Storage, opts ...Option) *Data[T] {
	d := &Data[T]{
		storage: storage,
		config: config{
			codec:  JSON,
			logger: slog.Default(),
		},
	}

	for _, opt := range opts {
		opt(&d.config)
	}

	d.logger = d.logger.With(logging.Component("persistence"))

	return d
}

// SetNotFoundHandler sets the function that provides the document when
// LoadFile finds nothing. The default is the zero value of T.
func (d *Data[T]) SetNotFoundHandler(fn func() T) {
	d.notFound = fn
}

// Path returns the path of the file.
func (d *Data[T]) Path() string {
	return d.path
}

// BackupKey returns the preference key that holds the backup copy.
func (d *Data[T]) BackupKey() string {
	return d.backupKey
}

// SetBackupKey changes the preference key that holds the backup copy. An
// empty key disables the backup.
func (d *Data[T]) SetBackupKey(key string) {
	d.backupKey = key
}

// Raw returns the text of the last document loaded, after decryption.
func (d *Data[T]) Raw() string {
	return d.raw
}

// Value returns the document.
func (d *Data[T]) Value() T {
	return d.value
}

// Set replaces the document.
func (d *Data[T]) Set(v T) {
	d.value = v
}

// Update changes the document in place.
func (d *Data[T]) Update(fn func(v *T)) {
	fn(&d.value)
}

// LoadFile reads the document from path. If the file is missing or empty,
// the backup preference is used instead. Encrypted content is decrypted
// before decoding. When nothing is found, the document is reset to its
// default and ErrNotFound is returned.
func (d *Data[T]) LoadFile(
	ctx context.Context,
	path, backupKey string,
	encrypted bool,
) error {
	d.path = path
	d.backupKey = backupKey

	raw, err := d.readRaw(ctx)
	if err != nil {
		d.logger.Error("unable to load file", "path", path, "error", err)
		return err
	}

	if raw == "" {
		d.raw = ""
		d.value = d.defaultValue()

		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if encrypted {
		raw, err = d.decrypt(raw)
		if err != nil {
			d.logger.Error("unable to decrypt file", "path", path, "error", err)
			return err
		}
	}

	var v T
	if err := d.codec.Unmarshal([]byte(raw), &v); err != nil {
		d.logger.Error("unable to parse file", "path", path, "error", err)
		return fmt.Errorf("parse %s: %w", path, err)
	}

	d.raw = raw
	d.value = v

	return nil
}

func (d *Data[T]) readRaw(ctx context.Context) (string, error) {
	data, err := d.storage.Read(ctx, d.path)
	if err != nil && !errors.Is(err, fileio.ErrNotFound) {
		return "", err
	}

	if len(data) > 0 {
		return string(data), nil
	}

	if d.backupKey == "" || d.prefs == nil {
		return "", nil
	}

	return d.prefs.GetString(d.backupKey, ""), nil
}

func (d *Data[T]) decrypt(raw string) (string, error) {
	if d.encryptor == nil {
		return "", ErrNoEncryptor
	}

	return d.encryptor.Decrypt(raw)
}

func (d *Data[T]) defaultValue() T {
	if d.notFound != nil {
		return d.notFound()
	}

	var zero T

	return zero
}

// SaveFile encodes the document, encrypts it if an encryptor is set, copies
// it to the backup preference and writes it to the file.
func (d *Data[T]) SaveFile(ctx context.Context) error {
	if d.path == "" {
		d.logger.Error("must load file before saving")
		return ErrNoPath
	}

	data, err := d.codec.Marshal(d.value)
	if err != nil {
		d.logger.Error("unable to encode file", "path", d.path, "error", err)
		return fmt.Errorf("encode %s: %w", d.path, err)
	}

	output := string(data)
	if d.encryptor != nil {
		output = d.encryptor.Encrypt(output)
	}

	if d.backupKey != "" && d.prefs != nil {
		if err := d.prefs.SetString(d.backupKey, output); err != nil {
			d.logger.Error("unable to write backup", "key", d.backupKey, "error", err)
			return err
		}
	}

	if err := d.storage.Write(ctx, d.path, []byte(output)); err != nil {
		d.logger.Error("unable to write file", "path", d.path, "error", err)
		return err
	}

	return nil
}

// DeleteFile removes the file and the backup preference.
func (d *Data[T]) DeleteFile(ctx context.Context) error {
	if d.path == "" {
		d.logger.Error("unable to delete, no file path set")
		return ErrNoPath
	}

	var errs []error

	if d.backupKey != "" && d.prefs != nil {
		errs = append(errs, d.prefs.Delete(d.backupKey))
	}

	errs = append(errs, d.storage.Delete(ctx, d.path))

	if err := errors.Join(errs...); err != nil {
		d.logger.Error("unable to delete file", "path", d.path, "error", err)
		return err
	}

	return nil
}

// JSONObject is a free-form JSON document.
type JSONObject = map[string]any

// NewJSONObject creates a Data holding a free-form document that defaults to
// an empty object.
func NewJSONObject(storage fileio.Storage, opts ...Option) *Data[JSONObject] {
	d := New[JSONObject](storage, opts...)
	d.SetNotFoundHandler(func() JSONObject { return JSONObject{} })

	return d
}
