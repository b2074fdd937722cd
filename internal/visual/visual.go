// Package visual implements the Visual-Builder Adapter (spec §4.7): a
// bidirectional conversion between a Flow Definition's fan-out edge shape
// and the flat nodes[]/edges[] shape a node-and-wire UI expects (one visual
// edge per (from, single-to) pair). Nodes, positions, labels and edge
// targets, conditions, predicates, instructions and priorities round-trip;
// FromVisual does not restore EdgeDefinition IDs, and a node without a
// position comes back at (0, 0).
package visual

import (
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
)

// VisualNode is one builder-canvas node.
type VisualNode struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Label       string              `json:"label,omitempty"`
	AgentRef    string              `json:"agent_ref,omitempty"`
	Instruction string              `json:"instruction,omitempty"`
	MaxRetries  int                 `json:"max_retries"`
	Config      map[string]any      `json:"config,omitempty"`
	PreActions  []flow.ActionDefinition `json:"pre_actions,omitempty"`
	PostActions []flow.ActionDefinition `json:"post_actions,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	Position    flow.Position       `json:"position"`
}

// VisualEdge is one canvas wire: exactly one source, one target.
type VisualEdge struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Condition   string `json:"condition"`
	Predicate   string `json:"predicate,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	Priority    int    `json:"priority"`
	Label       string `json:"label,omitempty"`
}

// Document is the builder's canvas representation of one flow.
type Document struct {
	Flow  string       `json:"flow"`
	Nodes []VisualNode `json:"nodes"`
	Edges []VisualEdge `json:"edges"`
}

// ToVisual flattens a Flow Definition into a Document, expanding every
// fan-out EdgeDefinition (one From, many To) into one VisualEdge per
// target so each wire on the canvas has a single endpoint on each side.
func ToVisual(def *flow.Definition) *Document {
	doc := &Document{Flow: def.Flow}

	for _, n := range def.Nodes {
		pos := flow.Position{}
		if n.Position != nil {
			pos = *n.Position
		}
		doc.Nodes = append(doc.Nodes, VisualNode{
			ID:          n.ID,
			Type:        string(n.Type),
			Label:       n.Label,
			AgentRef:    n.AgentRef,
			Instruction: n.Instruction,
			MaxRetries:  n.MaxRetries,
			Config:      n.Config,
			PreActions:  n.PreActions,
			PostActions: n.PostActions,
			Metadata:    n.Metadata,
			Position:    pos,
		})
	}

	for _, e := range def.Edges {
		for i, to := range e.To {
			id := e.ID
			if id == "" || len(e.To) > 1 {
				id = edgeVisualID(e, i)
			}
			doc.Edges = append(doc.Edges, VisualEdge{
				ID:          id,
				Source:      e.From,
				Target:      to,
				Condition:   string(e.Condition),
				Predicate:   e.Predicate,
				Instruction: e.Instruction,
				Priority:    e.Priority,
				Label:       e.Label,
			})
		}
	}

	return doc
}

func edgeVisualID(e flow.EdgeDefinition, index int) string {
	base := e.ID
	if base == "" {
		base = e.From
	}
	if len(e.To) <= 1 {
		return base
	}
	return base + "#" + e.To[index]
}

// FromVisual re-groups a Document's flat edges back into fan-out
// EdgeDefinitions: visual edges sharing the same (source, condition,
// predicate, instruction, priority) collapse into one EdgeDefinition
// with multiple targets, the inverse of ToVisual's expansion.
func FromVisual(doc *Document, flowName string) *flow.Definition {
	d := flow.New(flowName)
	if d.Flow == "" {
		d.Flow = doc.Flow
	}

	for _, n := range doc.Nodes {
		pos := n.Position
		d.Nodes = append(d.Nodes, flow.NodeDefinition{
			ID:          n.ID,
			Type:        flow.NodeType(n.Type),
			Label:       n.Label,
			AgentRef:    n.AgentRef,
			Instruction: n.Instruction,
			MaxRetries:  n.MaxRetries,
			Config:      n.Config,
			PreActions:  n.PreActions,
			PostActions: n.PostActions,
			Metadata:    n.Metadata,
			Position:    &pos,
		})
	}

	type groupKey struct {
		from, condition, predicate, instruction string
		priority                                int
	}
	order := make([]groupKey, 0, len(doc.Edges))
	groups := make(map[groupKey]*flow.EdgeDefinition)

	for _, ve := range doc.Edges {
		key := groupKey{from: ve.Source, condition: ve.Condition, predicate: ve.Predicate, instruction: ve.Instruction, priority: ve.Priority}
		ed, ok := groups[key]
		if !ok {
			ed = &flow.EdgeDefinition{
				From:        ve.Source,
				Condition:   flow.EdgeCondition(ve.Condition),
				Predicate:   ve.Predicate,
				Instruction: ve.Instruction,
				Priority:    ve.Priority,
				Label:       ve.Label,
			}
			groups[key] = ed
			order = append(order, key)
		}
		ed.To = append(ed.To, ve.Target)
	}

	for _, key := range order {
		d.Edges = append(d.Edges, *groups[key])
	}

	return d
}
