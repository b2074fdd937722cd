// Package flow implements the Flow Definition data model: the declarative,
// persistable description of a flow's nodes, edges, and metadata (spec §3),
// validated on load (spec §4.6, §7 "Definition errors").
package flow

import "time"

// NodeType enumerates the kinds a Node Definition may take.
type NodeType string

const (
	NodeTypeStart               NodeType = "start"
	NodeTypeEnd                 NodeType = "end"
	NodeTypeAgent               NodeType = "agent"
	NodeTypeDecision            NodeType = "decision"
	NodeTypeInteractiveDecision NodeType = "interactive_decision"
	NodeTypeHuman               NodeType = "human"
)

func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeStart, NodeTypeEnd, NodeTypeAgent, NodeTypeDecision, NodeTypeInteractiveDecision, NodeTypeHuman:
		return true
	}
	return false
}

// EdgeCondition enumerates when an outgoing edge is eligible to fire.
type EdgeCondition string

const (
	ConditionAlways      EdgeCondition = "always"
	ConditionOnSuccess   EdgeCondition = "on_success"
	ConditionOnError     EdgeCondition = "on_error"
	ConditionOnTimeout   EdgeCondition = "on_timeout"
	ConditionOnCondition EdgeCondition = "on_condition"
)

func (c EdgeCondition) IsValid() bool {
	switch c {
	case ConditionAlways, ConditionOnSuccess, ConditionOnError, ConditionOnTimeout, ConditionOnCondition:
		return true
	}
	return false
}

// Position carries UI hints only; ignored at runtime.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ActionDefinition is a tagged variant over the Action Runtime's action
// types (spec §4.2). Config is materialized into a typed struct by
// internal/action at load time.
type ActionDefinition struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// NodeDefinition describes one vertex of the flow graph.
type NodeDefinition struct {
	ID          string             `json:"id"`
	Type        NodeType           `json:"type"`
	Label       string             `json:"label,omitempty"`
	AgentRef    string             `json:"agent_ref,omitempty"`
	Instruction string             `json:"instruction,omitempty"`
	MaxRetries  int                `json:"max_retries"`
	Config      map[string]any     `json:"config,omitempty"`
	PreActions  []ActionDefinition `json:"pre_actions,omitempty"`
	PostActions []ActionDefinition `json:"post_actions,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Position    *Position          `json:"position,omitempty"`
}

// EdgeDefinition describes a directed link between nodes. To may reference
// more than one target (fan-out).
type EdgeDefinition struct {
	ID          string        `json:"id,omitempty"`
	From        string        `json:"from"`
	To          []string      `json:"to"`
	Condition   EdgeCondition `json:"condition"`
	Predicate   string        `json:"predicate,omitempty"`
	Instruction string        `json:"instruction,omitempty"`
	Priority    int           `json:"priority"`
	Label       string        `json:"label,omitempty"`
}

// Metadata carries the engine tunables a Flow Definition may override.
type Metadata struct {
	MaxParallelTasks      int    `json:"max_parallel_tasks"`
	DefaultMaxRetries     int    `json:"default_max_retries"`
	ExecutionTimeout      *float64 `json:"execution_timeout,omitempty"` // seconds
	TruncationLength      *int   `json:"truncation_length,omitempty"`
	EnableExecutionMemory bool   `json:"enable_execution_memory"`
	EmbeddingModel        string `json:"embedding_model,omitempty"`
	VectorDimension       int    `json:"vector_dimension"`
	VectorIndexType       string `json:"vector_index_type"`
}

// DefaultMetadata returns the spec's documented defaults.
func DefaultMetadata() Metadata {
	return Metadata{
		MaxParallelTasks:      10,
		DefaultMaxRetries:     3,
		EnableExecutionMemory: true,
		VectorDimension:       384,
		VectorIndexType:       "Flat",
	}
}

// Definition is the persisted root: a Flow Definition.
type Definition struct {
	Flow        string           `json:"flow"`
	Version     string           `json:"version"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Metadata    Metadata         `json:"metadata"`
	Nodes       []NodeDefinition `json:"nodes"`
	Edges       []EdgeDefinition `json:"edges"`
}

// New constructs an empty Definition with default version and metadata,
// for programmatic flow building.
func New(name string) *Definition {
	now := time.Now()
	return &Definition{
		Flow:      name,
		Version:   "1.0",
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  DefaultMetadata(),
	}
}

// NodeByID returns the node with the given ID, if present.
func (d *Definition) NodeByID(id string) (*NodeDefinition, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}
