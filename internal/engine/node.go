package engine

import (
	"time"

	"github.com/phenobarbital/ai-parrot-sub006/internal/action"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/internal/fsm"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// RuntimeNode wraps one Flow Definition node with the state the engine
// tracks across a run: its FSM, retry bookkeeping, result/error, timing,
// and the dependency set derived from the flow's dependency graph.
type RuntimeNode struct {
	Def          *flow.NodeDefinition
	Machine      *fsm.Machine
	Agent        agent.Agent // nil for start/end/non-agent nodes
	PreActions   []action.Action
	PostActions  []action.Action
	Dependencies []string
	RetryCount   int
	Prompt       string // last prompt fed to Agent.Ask, for the execution log's input excerpt
	Result       any
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
	// dispatched is true once a worker has started the node this run,
	// distinguishing "never activated" from "not yet reached".
	dispatched bool
}

func newRuntimeNode(def *flow.NodeDefinition, deps []string, ag agent.Agent) *RuntimeNode {
	return &RuntimeNode{
		Def:          def,
		Machine:      fsm.New(def.ID),
		Agent:        ag,
		Dependencies: deps,
	}
}

func (n *RuntimeNode) reset() {
	n.Machine.Reset()
	n.RetryCount = 0
	n.Prompt = ""
	n.Result = nil
	n.Err = nil
	n.StartedAt = time.Time{}
	n.FinishedAt = time.Time{}
	n.dispatched = false
}

func (n *RuntimeNode) isTerminal() bool {
	return n.Machine.IsTerminal()
}
