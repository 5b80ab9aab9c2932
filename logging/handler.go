package logging

import (
	"context"
	"log/slog"
)

// FilterHandler wraps a slog.Handler and drops the records of muted
// components. The component is taken from the attributes added with
// WithAttrs, or from the record itself.
type FilterHandler struct {
	next      slog.Handler
	filter    *Filter
	component string
	grouped   bool
}

// NewFilterHandler wraps next with f.
func NewFilterHandler(next slog.Handler, f *Filter) *FilterHandler {
	return &FilterHandler{next: next, filter: f}
}

// Enabled reports whether next handles records of the level.
func (h *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle passes the record to next unless its component is muted.
func (h *FilterHandler) Handle(ctx context.Context, rec slog.Record) error {
	component := h.component

	if !h.grouped {
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == ComponentKey {
				component = a.Value.String()
				return false
			}

			return true
		})
	}

	if component != "" && h.filter.IsMuted(component) {
		return nil
	}

	return h.next.Handle(ctx, rec)
}

// WithAttrs returns a handler that remembers the component attribute, if
// attrs has one.
func (h *FilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.next = h.next.WithAttrs(attrs)

	if !h.grouped {
		for _, a := range attrs {
			if a.Key == ComponentKey {
				h2.component = a.Value.String()
			}
		}
	}

	return &h2
}

// WithGroup returns a handler for the group. Component attributes inside a
// group do not name the source.
func (h *FilterHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.next = h.next.WithGroup(name)

	if name != "" {
		h2.grouped = true
	}

	return &h2
}
