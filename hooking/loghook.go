package hooking

import (
	"context"
	"log/slog"
)

// A LogHook writes every hook invocation it receives to a structured logger.
// It is mostly used for debugging frame-by-frame behavior.
type LogHook struct {
	logger *slog.Logger
	level  slog.Level
	filter map[*HookPos]bool
}

// NewLogHook creates a LogHook that logs at debug level. If positions are
// given, only invocations at those positions are logged.
func NewLogHook(logger *slog.Logger, positions ...*HookPos) *LogHook {
	if logger == nil {
		logger = slog.Default()
	}

	h := &LogHook{
		logger: logger,
		level:  slog.LevelDebug,
	}

	if len(positions) > 0 {
		h.filter = make(map[*HookPos]bool, len(positions))
		for _, p := range positions {
			h.filter[p] = true
		}
	}

	return h
}

// WithLevel changes the level the hook logs at.
func (h *LogHook) WithLevel(level slog.Level) *LogHook {
	h.level = level
	return h
}

// Func logs the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	if h.filter != nil && !h.filter[ctx.Pos] {
		return
	}

	pos := "unknown"
	if ctx.Pos != nil {
		pos = ctx.Pos.Name
	}

	h.logger.Log(context.Background(), h.level, "hook",
		"pos", pos,
		"item", ctx.Item,
		"detail", ctx.Detail,
	)
}
