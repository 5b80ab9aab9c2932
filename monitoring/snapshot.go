package monitoring

import (
	"github.com/sarchlab/heartbeat/statemachine"
	"github.com/sarchlab/heartbeat/timer"
	"github.com/sarchlab/heartbeat/timing"
)

// FrameInfo describes the last dispatched tick.
type FrameInfo struct {
	Frame   uint64  `json:"frame"`
	Now     float64 `json:"now"`
	Delta   float64 `json:"delta"`
	Paused  bool    `json:"paused"`
	Running bool    `json:"running"`
}

// TimerInfo is a copy of the observable state of a timer.
type TimerInfo struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	Delay     float64 `json:"delay"`
	Elapsed   float64 `json:"elapsed"`
	Remaining float64 `json:"remaining"`
	Display   string  `json:"display"`
}

// MachineInfo is a copy of the observable state of a state machine.
type MachineInfo struct {
	Name    string   `json:"name"`
	Current string   `json:"current"`
	States  []string `json:"states"`
	History []string `json:"history"`
}

type snapshot struct {
	frame    FrameInfo
	timers   []TimerInfo
	machines []MachineInfo
}

func timerInfo(t *timer.Timer) TimerInfo {
	return TimerInfo{
		ID:        t.ID(),
		State:     t.State(),
		Delay:     float64(t.Delay()),
		Elapsed:   float64(t.Elapsed()),
		Remaining: float64(t.TimeRemaining()),
		Display:   t.Format(`mm\:ss\.ff`, false),
	}
}

func machineInfo(m *statemachine.StateMachine) MachineInfo {
	return MachineInfo{
		Name:    m.Name(),
		Current: m.CurrentName(),
		States:  m.StateNames(),
		History: m.PreviousStates(),
	}
}

func frameInfo(ctx timing.FrameCtx) FrameInfo {
	return FrameInfo{
		Frame: ctx.Frame,
		Now:   float64(ctx.Now),
		Delta: float64(ctx.Delta),
	}
}
