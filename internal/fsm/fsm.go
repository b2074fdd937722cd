// Package fsm implements the per-node state machine from spec §4.3:
// idle -> ready -> running -> {completed, failed}, with failed <-> ready
// via retry and an idle/ready -> blocked -> ready detour for nodes waiting
// on an explicit unblock.
package fsm

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// State is one of the six node lifecycle states.
type State string

const (
	Idle      State = "idle"
	Ready     State = "ready"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
	Blocked   State = "blocked"
)

// Event is one of the seven transitions a caller may fire.
type Event string

const (
	EventSchedule Event = "schedule"
	EventStart    Event = "start"
	EventSucceed  Event = "succeed"
	EventFail     Event = "fail"
	EventBlock    Event = "block"
	EventUnblock  Event = "unblock"
	EventRetry    Event = "retry"
)

// table maps each event to its set of allowed source states and single
// destination state, per spec §4.3.
var table = map[Event]struct {
	from []State
	to   State
}{
	EventSchedule: {from: []State{Idle}, to: Ready},
	EventStart:    {from: []State{Ready}, to: Running},
	EventSucceed:  {from: []State{Running}, to: Completed},
	EventFail:     {from: []State{Running, Ready, Idle}, to: Failed},
	EventBlock:    {from: []State{Idle, Ready}, to: Blocked},
	EventUnblock:  {from: []State{Blocked}, to: Ready},
	EventRetry:    {from: []State{Failed}, to: Ready},
}

// TransitionError reports an attempt to fire an event from a state that
// does not allow it.
type TransitionError struct {
	NodeID string
	Event  Event
	From   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("node %s: event %s not allowed from state %s", e.NodeID, e.Event, e.From)
}

// Machine is one node's state machine. State, Fire, and Reset are guarded
// by the machine's own mutex, so it may be read and fired from different
// goroutines; the engine's per-node worker fires its own node's run-time
// transitions.
type Machine struct {
	mu     sync.Mutex
	nodeID string
	state  State
	log    zerolog.Logger
}

// New creates a Machine in the initial idle state.
func New(nodeID string) *Machine {
	return &Machine{nodeID: nodeID, state: Idle, log: *telemetry.L()}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire attempts event, returning TransitionError if not allowed from the
// current state. Every transition logs at debug level per spec §4.3.
func (m *Machine) Fire(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := table[event]
	if !ok {
		return fmt.Errorf("unknown fsm event %q", event)
	}

	allowed := false
	for _, s := range rule.from {
		if s == m.state {
			allowed = true
			break
		}
	}
	if !allowed {
		return &TransitionError{NodeID: m.nodeID, Event: event, From: m.state}
	}

	from := m.state
	m.state = rule.to
	telemetry.LogTransition(m.log, m.nodeID, string(event), string(from), string(rule.to))
	return nil
}

// Reset returns the machine to idle, used at the start of every `run`
// (spec §4.4 step 1: "Reset every Runtime Node to fresh idle").
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
}

// IsTerminal reports whether the current state is a run-terminal state for
// this node (completed or failed with no further retries is determined by
// the caller, which tracks retry_count/max_retries outside the FSM).
func (m *Machine) IsTerminal() bool {
	s := m.State()
	return s == Completed || s == Failed
}
