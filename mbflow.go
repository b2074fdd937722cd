// Package flowengine is the public surface of the flow execution engine:
// build or load a Flow Definition, materialize it into a runnable Engine,
// and run it. Everything here is a thin re-export over internal/flow,
// internal/engine, internal/persistence, internal/visual and pkg/agent —
// application code should only need to import this package plus pkg/agent
// (to implement its own Agent) and, for the builder UI surface,
// internal/visual is wrapped here too.
package flowengine

import (
	"github.com/phenobarbital/ai-parrot-sub006/internal/engine"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
)

// Flow Definition types (spec §3).
type (
	Definition       = flow.Definition
	NodeDefinition   = flow.NodeDefinition
	EdgeDefinition   = flow.EdgeDefinition
	ActionDefinition = flow.ActionDefinition
	Metadata         = flow.Metadata
	Position         = flow.Position
	NodeType         = flow.NodeType
	EdgeCondition    = flow.EdgeCondition
)

const (
	NodeTypeStart               = flow.NodeTypeStart
	NodeTypeEnd                 = flow.NodeTypeEnd
	NodeTypeAgent               = flow.NodeTypeAgent
	NodeTypeDecision            = flow.NodeTypeDecision
	NodeTypeInteractiveDecision = flow.NodeTypeInteractiveDecision
	NodeTypeHuman               = flow.NodeTypeHuman
)

const (
	ConditionAlways      = flow.ConditionAlways
	ConditionOnSuccess   = flow.ConditionOnSuccess
	ConditionOnError     = flow.ConditionOnError
	ConditionOnTimeout   = flow.ConditionOnTimeout
	ConditionOnCondition = flow.ConditionOnCondition
)

// NewDefinition starts an empty Flow Definition for programmatic building.
func NewDefinition(name string) *Definition {
	return flow.New(name)
}

// DefaultMetadata returns the engine's documented tunable defaults.
func DefaultMetadata() Metadata {
	return flow.DefaultMetadata()
}

// Run result types (spec §4.6 "run").
type (
	RunResult   = engine.RunResult
	NodeResult  = engine.NodeResult
	AgentResult = engine.AgentResult
	LogEntry    = engine.LogEntry
	RunOptions  = engine.RunOptions
)

const (
	StatusCompleted = engine.StatusCompleted
	StatusFailed    = engine.StatusFailed
	StatusPending   = engine.StatusPending
	StatusPartial   = engine.StatusPartial
)
