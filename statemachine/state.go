// Package statemachine provides a flat, name-keyed state machine. Each state
// owns ordered lists of enter and exit callbacks, and the machine remembers
// the distinct names of the states it has left.
package statemachine

// A Callback is a handle around a function. Callbacks are compared by
// handle, so the same Callback can be attached and detached later.
type Callback struct {
	fn func()
}

// NewCallback wraps fn into a Callback.
func NewCallback(fn func()) *Callback {
	return &Callback{fn: fn}
}

// Invoke calls the wrapped function.
func (c *Callback) Invoke() {
	if c.fn != nil {
		c.fn()
	}
}

type callbackList []*Callback

func (l callbackList) contains(cb *Callback) bool {
	for _, c := range l {
		if c == cb {
			return true
		}
	}

	return false
}

func (l *callbackList) attach(cb *Callback) bool {
	if cb == nil || l.contains(cb) {
		return false
	}

	*l = append(*l, cb)

	return true
}

func (l *callbackList) detach(cb *Callback) bool {
	for i, c := range *l {
		if c == cb {
			*l = append((*l)[:i:i], (*l)[i+1:]...)
			return true
		}
	}

	return false
}

// invoke runs a snapshot of the list, so callbacks may attach or detach
// other callbacks while running.
func (l callbackList) invoke() {
	for _, c := range l {
		c.Invoke()
	}
}

// A State is a named node of a StateMachine.
type State struct {
	name    string
	onEnter callbackList
	onExit  callbackList
}

func newState(name string) *State {
	return &State{name: name}
}

// Name returns the name of the state.
func (s *State) Name() string {
	return s.name
}

// NumEnterCallbacks returns the number of attached enter callbacks.
func (s *State) NumEnterCallbacks() int {
	return len(s.onEnter)
}

// NumExitCallbacks returns the number of attached exit callbacks.
func (s *State) NumExitCallbacks() int {
	return len(s.onExit)
}

// HasEnterCallback returns true if cb is attached as an enter callback.
func (s *State) HasEnterCallback(cb *Callback) bool {
	return s.onEnter.contains(cb)
}

// HasExitCallback returns true if cb is attached as an exit callback.
func (s *State) HasExitCallback(cb *Callback) bool {
	return s.onExit.contains(cb)
}

func (s *State) enter() {
	s.onEnter.invoke()
}

func (s *State) exit() {
	s.onExit.invoke()
}

func (s *State) destroy() {
	s.onEnter = nil
	s.onExit = nil
}
