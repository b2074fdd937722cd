package flowengine

import (
	"github.com/phenobarbital/ai-parrot-sub006/internal/predicate"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// PredicateEvaluator compiles and evaluates on_condition edge expressions
// (spec §4.1, expr-lang syntax). Exposed mainly so a visual builder can
// validate a predicate string before it's attached to an edge.
type PredicateEvaluator = predicate.Evaluator

// NewPredicateEvaluator returns a ready-to-use Evaluator.
func NewPredicateEvaluator() *PredicateEvaluator {
	return predicate.New()
}

// NewStaticAgents builds an AgentRegistry from a plain name->Agent map,
// for wiring a fixed agent roster at process startup.
func NewStaticAgents(agents map[string]Agent) AgentRegistry {
	return agent.StaticRegistry(agents)
}
