// Package timing drives per-frame work. A Dispatcher invokes registered
// handlers once per tick on an update and a late-update channel, and a Loop
// feeds the dispatcher with ticks from a wall clock.
package timing

import "fmt"

// VTimeInSec is a time or a duration in seconds.
type VTimeInSec float64

// Channel is one of the dispatch phases of a tick.
type Channel int

// The channels a handler can be registered on. ChannelUpdate handlers run
// before ChannelLateUpdate handlers within the same tick.
const (
	ChannelUpdate Channel = iota
	ChannelLateUpdate
	numChannels
)

func (c Channel) String() string {
	switch c {
	case ChannelUpdate:
		return "update"
	case ChannelLateUpdate:
		return "late_update"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// FrameCtx describes the tick a handler is invoked for.
type FrameCtx struct {
	Frame   uint64
	Channel Channel
	Delta   VTimeInSec
	Now     VTimeInSec
}

// A Handler is invoked once per tick on the channel it is registered on.
// Handlers are compared by identity, so implementations should be pointer
// types.
type Handler interface {
	Handle(ctx FrameCtx)
}

// FuncHandler adapts a function into a Handler.
type FuncHandler struct {
	f func(ctx FrameCtx)
}

// NewFuncHandler wraps f. Every call returns a distinct handler, so the same
// function registered twice through two wrappers runs twice.
func NewFuncHandler(f func(ctx FrameCtx)) *FuncHandler {
	return &FuncHandler{f: f}
}

// Handle calls the wrapped function.
func (h *FuncHandler) Handle(ctx FrameCtx) {
	h.f(ctx)
}
