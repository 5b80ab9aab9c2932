package timing

import (
	"github.com/sarchlab/heartbeat/hooking"
	"github.com/sarchlab/heartbeat/id"
)

// HookPosBeforeTick is a hook position that triggers before a tick is
// dispatched. The hook item is the FrameCtx of the tick.
var HookPosBeforeTick = &hooking.HookPos{Name: "BeforeTick"}

// HookPosAfterTick is a hook position that triggers after both channels of a
// tick are dispatched.
var HookPosAfterTick = &hooking.HookPos{Name: "AfterTick"}

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTimeInSec
}

// A Dispatcher invokes registered handlers once per tick.
//
// A Dispatcher is not safe for concurrent use. It must be driven and mutated
// from a single goroutine, usually the one running a Loop.
type Dispatcher struct {
	hooking.HookableBase

	idGenerator id.IDGenerator
	channels    [numChannels]*handlerSet

	frame uint64
	now   VTimeInSec
	delta VTimeInSec
}

// NewDispatcher creates a Dispatcher with empty channels.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		idGenerator: id.NewIDGenerator(),
	}

	for i := range d.channels {
		d.channels[i] = newHandlerSet()
	}

	return d
}

// AddHandler registers h on the update channel. Adding a handler that is
// already registered moves it to the end of the channel; it is still invoked
// only once per tick.
func (d *Dispatcher) AddHandler(h Handler) *Registration {
	return d.Register(ChannelUpdate, h)
}

// AddLateHandler registers h on the late-update channel.
func (d *Dispatcher) AddLateHandler(h Handler) *Registration {
	return d.Register(ChannelLateUpdate, h)
}

// RemoveHandler removes h from the update channel. Removing a handler that is
// not registered does nothing.
func (d *Dispatcher) RemoveHandler(h Handler) {
	d.Unregister(ChannelUpdate, h)
}

// RemoveLateHandler removes h from the late-update channel.
func (d *Dispatcher) RemoveLateHandler(h Handler) {
	d.Unregister(ChannelLateUpdate, h)
}

// Register registers h on the given channel.
func (d *Dispatcher) Register(ch Channel, h Handler) *Registration {
	d.mustBeValidChannel(ch)

	if h == nil {
		panic("cannot register a nil handler")
	}

	reg := &Registration{
		id:         d.idGenerator.Generate(),
		channel:    ch,
		handler:    h,
		dispatcher: d,
	}

	d.channels[ch].add(reg)

	return reg
}

// Unregister removes h from the given channel.
func (d *Dispatcher) Unregister(ch Channel, h Handler) {
	d.mustBeValidChannel(ch)

	d.channels[ch].remove(h)
}

// IsRegistered returns true if h is registered on the given channel.
func (d *Dispatcher) IsRegistered(ch Channel, h Handler) bool {
	d.mustBeValidChannel(ch)

	return d.channels[ch].contains(h)
}

// NumHandlers returns the number of handlers registered on a channel.
func (d *Dispatcher) NumHandlers(ch Channel) int {
	d.mustBeValidChannel(ch)

	return len(d.channels[ch].list)
}

// Tick advances the time by delta and dispatches the update channel followed
// by the late-update channel.
//
// Each channel dispatches the handlers registered when its dispatch begins.
// A handler released during the dispatch is skipped; a handler added during
// the dispatch first runs on the next tick. A panicking handler aborts the
// rest of the tick.
func (d *Dispatcher) Tick(delta VTimeInSec) {
	if delta < 0 {
		delta = 0
	}

	d.frame++
	d.delta = delta
	d.now += delta

	ctx := FrameCtx{
		Frame: d.frame,
		Delta: delta,
		Now:   d.now,
	}

	hookCtx := hooking.HookCtx{
		Domain: d,
		Pos:    HookPosBeforeTick,
		Item:   ctx,
	}
	d.InvokeHook(hookCtx)

	d.dispatch(ChannelUpdate, ctx)
	d.dispatch(ChannelLateUpdate, ctx)

	hookCtx.Pos = HookPosAfterTick
	d.InvokeHook(hookCtx)
}

func (d *Dispatcher) dispatch(ch Channel, ctx FrameCtx) {
	ctx.Channel = ch

	for _, reg := range d.channels[ch].snapshot() {
		if reg.released {
			continue
		}

		reg.handler.Handle(ctx)
	}
}

// Now returns the accumulated time of all the ticks dispatched so far.
func (d *Dispatcher) Now() VTimeInSec {
	return d.now
}

// Delta returns the duration of the latest tick.
func (d *Dispatcher) Delta() VTimeInSec {
	return d.delta
}

// Frame returns the number of ticks dispatched so far.
func (d *Dispatcher) Frame() uint64 {
	return d.frame
}

// Clear releases all the registrations on all the channels.
func (d *Dispatcher) Clear() {
	for _, s := range d.channels {
		s.clear()
	}
}

func (d *Dispatcher) mustBeValidChannel(ch Channel) {
	if ch < 0 || ch >= numChannels {
		panic("invalid channel " + ch.String())
	}
}
