package flowengine

import (
	"context"

	"github.com/phenobarbital/ai-parrot-sub006/internal/engine"
	"github.com/phenobarbital/ai-parrot-sub006/internal/persistence"
)

// Engine is a materialized, runnable Flow Definition (spec §4.4).
type Engine = engine.Engine

// EngineOption configures an Engine at materialization time, e.g.
// WithActionRegistry for custom action types.
type EngineOption = engine.Option

// WithActionRegistry supplies a Registry pre-populated with custom action
// types instead of the built-in set.
func WithActionRegistry(r *ActionRegistry) EngineOption {
	return engine.WithActionRegistry(r)
}

// NewEngine materializes a Flow Definition against an agent registry (spec
// §4.6 "to_engine"). extraAgents, when non-nil, takes priority over
// registry for the same agent_ref — useful for wiring per-run stub agents
// in tests without touching the shared registry.
func NewEngine(def *Definition, registry AgentRegistry, extraAgents map[string]Agent, opts ...EngineOption) (*Engine, error) {
	return persistence.ToEngine(def, registry, extraAgents, opts...)
}

// Run executes a materialized Engine against a task string (spec §4.4
// "run"). opts.EntryPoint overrides the Definition's own entry nodes;
// opts.Timeout bounds the whole run; opts.OnAgentComplete, if set, fires
// once per node as it finishes (success or terminal failure).
func Run(ctx context.Context, e *Engine, task string, opts RunOptions) (*RunResult, error) {
	return e.Run(ctx, task, opts)
}

// RunStats summarizes dispatch, retry, and timing counts across an
// Engine's nodes as of its last Run.
type RunStats = engine.RunStats

// Answer is the result of a one-off Ask query against a named agent.
type Answer = engine.Answer

// Visualize renders a materialized flow as a diagram ("mermaid" or
// "dot"), styled by each node's current FSM state.
func Visualize(e *Engine, format string) (string, error) {
	return e.Visualize(format)
}

// Stats reports RunStats for e's current node states.
func Stats(e *Engine) RunStats {
	return e.Stats()
}

// Ask runs question against the named agent directly, outside the graph:
// a throwaway single-node sub-flow for one-off agent queries without a
// full run (spec §4.4 "ask").
func Ask(ctx context.Context, e *Engine, agentName, question string) (*Answer, error) {
	return e.Ask(ctx, agentName, question)
}
