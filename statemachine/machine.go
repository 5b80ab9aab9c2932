package statemachine

import (
	"errors"

	"github.com/sarchlab/heartbeat/hooking"
)

// HookPosStateChange is triggered after the current state of a machine
// changes. The hook item is the machine and the detail is a Transition.
var HookPosStateChange = &hooking.HookPos{Name: "StateChange"}

// ErrNoStates is returned when moving through a machine that owns no state.
var ErrNoStates = errors.New("state machine has no states")

// ErrNoHistory is returned when reverting a machine that has not left any
// state yet.
var ErrNoHistory = errors.New("state machine has no previous state")

// Transition describes a change of the current state. From is empty when the
// machine had no current state.
type Transition struct {
	From string
	To   string
}

// A StateMachine tracks the current state among a set of named states.
//
// States are created the first time their name is referenced. Exit callbacks
// of the state being left always run before the current state changes, and
// enter callbacks of the new state always run after.
type StateMachine struct {
	hooking.HookableBase

	name    string
	states  []*State
	current *State
	history []string
}

// New creates an empty state machine. The name is only used for diagnostics.
func New(name string) *StateMachine {
	return &StateMachine{name: name}
}

// Name returns the name of the machine.
func (m *StateMachine) Name() string {
	return m.name
}

// AddState gets or creates the named state and attaches the given callbacks.
// Either callback may be nil. If the machine is already in that state, the
// enter callback is invoked immediately.
func (m *StateMachine) AddState(name string, onEnter, onExit *Callback) *State {
	s := m.getOrCreate(name)

	m.attachEnter(s, onEnter)
	s.onExit.attach(onExit)

	return s
}

// AddEnterCallback attaches an enter callback to the named state, creating
// the state if needed. If the machine is already in that state, the callback
// is invoked immediately.
func (m *StateMachine) AddEnterCallback(name string, cb *Callback) {
	m.attachEnter(m.getOrCreate(name), cb)
}

// AddExitCallback attaches an exit callback to the named state, creating the
// state if needed.
func (m *StateMachine) AddExitCallback(name string, cb *Callback) {
	m.getOrCreate(name).onExit.attach(cb)
}

func (m *StateMachine) attachEnter(s *State, cb *Callback) {
	if !s.onEnter.attach(cb) {
		return
	}

	if m.current == s {
		cb.Invoke()
	}
}

// RemoveEnterCallback detaches an enter callback from the named state.
// Nothing happens if the state does not exist or the callback is not
// attached.
func (m *StateMachine) RemoveEnterCallback(name string, cb *Callback) {
	s := m.FindState(name)
	if s == nil {
		return
	}

	s.onEnter.detach(cb)
}

// RemoveExitCallback detaches an exit callback from the named state.
func (m *StateMachine) RemoveExitCallback(name string, cb *Callback) {
	s := m.FindState(name)
	if s == nil {
		return
	}

	s.onExit.detach(cb)
}

// UpdateState moves the machine to the named state and records the state
// being left in the history.
func (m *StateMachine) UpdateState(name string) {
	m.Transition(name, true)
}

// Transition moves the machine to the named state, creating it if needed.
// Moving to the current state does nothing. The name of the state being left
// is removed from the history and, if storePrevious is set, appended again at
// the end.
func (m *StateMachine) Transition(name string, storePrevious bool) {
	if m.current == nil {
		m.enter(m.getOrCreate(name), "")
		return
	}

	if m.current.name == name {
		return
	}

	from := m.current
	from.exit()

	m.forget(from.name)
	if storePrevious {
		m.history = append(m.history, from.name)
	}

	m.enter(m.getOrCreate(name), from.name)
}

func (m *StateMachine) enter(s *State, from string) {
	m.current = s
	s.enter()

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    HookPosStateChange,
		Item:   m,
		Detail: Transition{From: from, To: s.name},
	})
}

// MoveNextState moves to the state that follows the current one in
// insertion order, wrapping around after the last. Without a current state,
// it moves to the first state.
func (m *StateMachine) MoveNextState() error {
	if len(m.states) == 0 {
		return ErrNoStates
	}

	next := 0
	if m.current != nil {
		next = (m.indexOf(m.current.name) + 1) % len(m.states)
	}

	m.UpdateState(m.states[next].name)

	return nil
}

// RevertState moves back to the most recently left state other than the
// current one. The state being left is not recorded, so repeated reverts walk
// back through the history.
func (m *StateMachine) RevertState() error {
	for len(m.history) > 0 {
		last := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]

		if !m.IsState(last) {
			m.Transition(last, false)
			return nil
		}
	}

	return ErrNoHistory
}

// IsState returns true if the machine is currently in the named state.
func (m *StateMachine) IsState(name string) bool {
	return m.current != nil && m.current.name == name
}

// HasState returns true if the machine owns a state with the given name.
func (m *StateMachine) HasState(name string) bool {
	return m.indexOf(name) >= 0
}

// FindState returns the named state, or nil if the machine does not own it.
func (m *StateMachine) FindState(name string) *State {
	i := m.indexOf(name)
	if i < 0 {
		return nil
	}

	return m.states[i]
}

// RemoveState removes the named state. If it is the current state, the
// machine is left without a current state and no callback is invoked.
func (m *StateMachine) RemoveState(name string) {
	i := m.indexOf(name)
	if i < 0 {
		return
	}

	s := m.states[i]
	m.states = append(m.states[:i:i], m.states[i+1:]...)
	s.destroy()

	if m.current == s {
		m.current = nil
	}

	m.forget(name)
}

// CurrentState returns the current state, or nil before the first
// transition.
func (m *StateMachine) CurrentState() *State {
	return m.current
}

// CurrentName returns the name of the current state, or an empty string.
func (m *StateMachine) CurrentName() string {
	if m.current == nil {
		return ""
	}

	return m.current.name
}

// PreviousStates returns the history, oldest first.
func (m *StateMachine) PreviousStates() []string {
	return append([]string(nil), m.history...)
}

// StateNames returns the names of all the states in insertion order.
func (m *StateMachine) StateNames() []string {
	names := make([]string, len(m.states))
	for i, s := range m.states {
		names[i] = s.name
	}

	return names
}

// NumStates returns the number of states the machine owns.
func (m *StateMachine) NumStates() int {
	return len(m.states)
}

// Destroy detaches every callback and drops all the states, the current
// state and the history.
func (m *StateMachine) Destroy() {
	for _, s := range m.states {
		s.destroy()
	}

	m.states = nil
	m.current = nil
	m.history = nil
}

func (m *StateMachine) getOrCreate(name string) *State {
	if s := m.FindState(name); s != nil {
		return s
	}

	s := newState(name)
	m.states = append(m.states, s)

	return s
}

func (m *StateMachine) indexOf(name string) int {
	for i, s := range m.states {
		if s.name == name {
			return i
		}
	}

	return -1
}

func (m *StateMachine) forget(name string) {
	for i, n := range m.history {
		if n == name {
			m.history = append(m.history[:i:i], m.history[i+1:]...)
			return
		}
	}
}
