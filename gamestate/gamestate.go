// Package gamestate keeps the top-level state of an application together with
// an optional block that pauses progress until its owner resolves it.
package gamestate

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/heartbeat/statemachine"
)

// Well-known state names shared by the game state and the timers.
const (
	Loading    = "loading"
	MainMenu   = "main_menu"
	Init       = "init"
	Purchasing = "purchasing"
	Running    = "running"
	Stopped    = "stopped"
	Ready      = "ready"
	Pending    = "pending"
	Busy       = "busy"
	Done       = "done"
	Playing    = "playing"
	Dialog     = "dialog"
	Waiting    = "waiting"
	Blocking   = "blocking"
)

// GameState wraps the state machine of the whole application.
type GameState struct {
	logger  *slog.Logger
	machine *statemachine.StateMachine

	blocked bool
	blocker any
}

// New creates a GameState without a current state.
func New(logger *slog.Logger) *GameState {
	if logger == nil {
		logger = slog.Default()
	}

	return &GameState{
		logger:  logger,
		machine: statemachine.New("game_state"),
	}
}

// Machine returns the underlying state machine.
func (g *GameState) Machine() *statemachine.StateMachine {
	return g.machine
}

// SetBlocked puts a hold on the game state until blocker removes it. Setting a
// block while another one is set is ignored with a warning.
func (g *GameState) SetBlocked(blocker any) {
	if g.blocked {
		g.logger.Warn("state is already blocked",
			"blocker", fmt.Sprintf("%T", g.blocker))
		return
	}

	g.blocker = blocker
	g.blocked = true
}

// RemoveBlock clears the block if blocker set it or if the block has no
// owner.
func (g *GameState) RemoveBlock(blocker any) {
	if g.blocker == blocker || g.blocker == nil {
		g.blocked = false
		g.blocker = nil
	}
}

// IsBlocked returns true if a block is set.
func (g *GameState) IsBlocked() bool {
	return g.blocked
}

// Blocker returns the owner of the current block.
func (g *GameState) Blocker() any {
	return g.blocker
}

// Update moves the game to the named state.
func (g *GameState) Update(state string) {
	g.machine.UpdateState(state)
}

// IsState returns true if the game is in the named state.
func (g *GameState) IsState(state string) bool {
	return g.machine.IsState(state)
}

// CurrentState returns the current state, or nil before the first update.
func (g *GameState) CurrentState() *statemachine.State {
	return g.machine.CurrentState()
}

// AddEnterCallback attaches cb to the named state.
func (g *GameState) AddEnterCallback(state string, cb *statemachine.Callback) {
	g.machine.AddEnterCallback(state, cb)
}

// RemoveEnterCallback detaches cb from the named state.
func (g *GameState) RemoveEnterCallback(state string, cb *statemachine.Callback) {
	g.machine.RemoveEnterCallback(state, cb)
}

// AddExitCallback attaches cb to the named state.
func (g *GameState) AddExitCallback(state string, cb *statemachine.Callback) {
	g.machine.AddExitCallback(state, cb)
}

// RemoveExitCallback detaches cb from the named state.
func (g *GameState) RemoveExitCallback(state string, cb *statemachine.Callback) {
	g.machine.RemoveExitCallback(state, cb)
}

// Destroy drops the state machine together with all its callbacks and clears
// the block.
func (g *GameState) Destroy() {
	g.machine.Destroy()
	g.machine = statemachine.New("game_state")
	g.blocked = false
	g.blocker = nil
}
