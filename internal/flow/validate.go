package flow

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flowerrors"
	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// Validate checks every invariant from spec §3/§4.6/§7: unique node IDs,
// known node/edge types, agent_ref presence on agent nodes, non-empty
// predicates on on_condition edges, and that every edge endpoint refers to
// an existing node. Cycle-forming edges are skipped silently (logged), not
// rejected, matching the spec's wire-time invariant.
func (d *Definition) Validate() error {
	if d.Flow == "" {
		return flowerrors.NewDefinitionError(flowerrors.ErrCodeInvalidMetadata, "flow name is required", nil)
	}
	if len(d.Nodes) == 0 {
		return flowerrors.NewDefinitionError(flowerrors.ErrCodeInvalidMetadata, "flow must declare at least one node", nil)
	}

	seen := make(map[string]struct{}, len(d.Nodes))
	ids := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return flowerrors.NewDefinitionError(flowerrors.ErrCodeInvalidMetadata, "node ID cannot be empty", nil)
		}
		if _, dup := seen[n.ID]; dup {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeDuplicateNodeID,
				fmt.Sprintf("duplicate node id %q", n.ID),
				nil,
			)
		}
		seen[n.ID] = struct{}{}
		ids = append(ids, n.ID)

		if !n.Type.IsValid() {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeUnknownNodeType,
				fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type),
				nil,
			)
		}
		if n.Type == NodeTypeAgent && n.AgentRef == "" {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeMissingAgentRef,
				fmt.Sprintf("agent node %q is missing agent_ref", n.ID),
				nil,
			)
		}
		if n.MaxRetries < 0 {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeInvalidMetadata,
				fmt.Sprintf("node %q has negative max_retries", n.ID),
				nil,
			)
		}
	}

	log := telemetry.L()
	g := newDepGraph(ids)

	for i := range d.Edges {
		e := &d.Edges[i]
		if e.From == "" {
			return flowerrors.NewDefinitionError(flowerrors.ErrCodeUnknownNodeRef, "edge has empty from", nil)
		}
		if _, ok := seen[e.From]; !ok {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeUnknownNodeRef,
				fmt.Sprintf("edge references unknown source node %q", e.From),
				nil,
			)
		}
		if len(e.To) == 0 {
			return flowerrors.NewDefinitionError(flowerrors.ErrCodeUnknownNodeRef, fmt.Sprintf("edge from %q has no targets", e.From), nil)
		}
		if !e.Condition.IsValid() {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeInvalidMetadata,
				fmt.Sprintf("edge from %q has unknown condition %q", e.From, e.Condition),
				nil,
			)
		}
		if e.Condition == ConditionOnCondition && e.Predicate == "" {
			return flowerrors.NewDefinitionError(
				flowerrors.ErrCodeEmptyPredicate,
				fmt.Sprintf("on_condition edge from %q has no predicate", e.From),
				nil,
			)
		}

		for _, to := range e.To {
			if _, ok := seen[to]; !ok {
				return flowerrors.NewDefinitionError(
					flowerrors.ErrCodeUnknownNodeRef,
					fmt.Sprintf("edge from %q references unknown target node %q", e.From, to),
					nil,
				)
			}
			if !g.addEdge(e.From, to) {
				logSkippedEdge(log, e.From, to)
			}
		}
	}

	return nil
}

func logSkippedEdge(log *zerolog.Logger, from, to string) {
	log.Warn().Str("from", from).Str("to", to).Msg("skipping edge: self-loop or would introduce a reachability cycle")
}

// BuildDepGraph re-derives the dependency graph after validation, for use
// by the engine when resolving entry points and dependents. Call only
// after Validate has succeeded.
func (d *Definition) BuildDepGraph() *DepGraph {
	ids := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		ids = append(ids, n.ID)
	}
	g := newDepGraph(ids)
	for _, e := range d.Edges {
		for _, to := range e.To {
			g.addEdge(e.From, to)
		}
	}
	return g
}
