// Package hooking lets observers attach to the dispatcher, state machines and
// timers without changing their behavior.
package hooking

// HookPos names a point at which a hookable object calls its hooks, such as
// before a tick or after a state change.
type HookPos struct {
	Name string
}

// HookCtx is passed to every hook call. Item is the object the call is about
// (a frame, a timer) and Detail carries whatever the position adds to it.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by every object that reports to hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook observes a hookable object. Func runs synchronously on the goroutine
// that drives the object, so it must not block.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook. Register the pointer returned by
// NewHookFunc so that the same hook can be removed later.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f *HookFunc) Func(ctx HookCtx) {
	(*f)(ctx)
}

// NewHookFunc wraps f into a Hook.
func NewHookFunc(f func(ctx HookCtx)) *HookFunc {
	h := HookFunc(f)
	return &h
}

// HookableBase keeps the hook list of a hookable object. Embed it to get
// AcceptHook, RemoveHook, NumHooks and Hooks for free.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the attached hooks in the order they were added.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook attaches a hook. Attaching the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, attached := range h.hooks {
		if attached == hook {
			panic("hook already attached")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// RemoveHook detaches a hook. Detaching a hook that is not attached does
// nothing.
func (h *HookableBase) RemoveHook(hook Hook) {
	for i, attached := range h.hooks {
		if attached == hook {
			h.hooks = append(h.hooks[:i:i], h.hooks[i+1:]...)
			return
		}
	}
}

// InvokeHook calls every attached hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
