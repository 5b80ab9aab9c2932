// Package logging builds the structured loggers used across heartbeat and
// lets callers mute the records of chosen components at run time.
//
// Components identify themselves with a "component" attribute, usually added
// once with logger.With(logging.Source[T]()). A FilterHandler drops every
// record whose component is muted in its Filter.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the output format of a logger.
type Format string

const (
	// FormatText writes logfmt-style lines.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"
)

// Option configures a logger created by New.
type Option func(*options)

type options struct {
	level  slog.Level
	format Format
	output io.Writer
	filter *Filter
	attrs  []slog.Attr
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat sets the output format. It panics on an unknown format.
func WithFormat(f Format) Option {
	return func(o *options) {
		switch f {
		case FormatText, FormatJSON:
			o.format = f
		default:
			panic(fmt.Errorf("invalid log format %q", f))
		}
	}
}

// WithOutput sets where records are written. A nil writer is ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithFilter drops the records of the components muted in f.
func WithFilter(f *Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// New creates a logger. Without options it writes text records of level info
// and above to stderr.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatText,
		output: os.Stderr,
	}

	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	if o.format == FormatJSON {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	if o.filter != nil {
		handler = NewFilterHandler(handler, o.filter)
	}

	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	return slog.New(handler)
}

// ParseLevel converts a level name such as "debug" or "WARN" into a level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level

	err := l.UnmarshalText([]byte(strings.TrimSpace(s)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return l, nil
}
