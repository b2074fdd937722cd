package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/internal/fsm"
	"github.com/phenobarbital/ai-parrot-sub006/internal/memory"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// Visualize renders the materialized flow as a diagram, styling each node
// by its current FSM state. "mermaid" and "dot" are the supported formats.
func (e *Engine) Visualize(format string) (string, error) {
	switch format {
	case "mermaid":
		return e.visualizeMermaid(), nil
	case "dot":
		return e.visualizeDot(), nil
	default:
		return "", fmt.Errorf("visualize: unsupported format %q", format)
	}
}

func (e *Engine) nodeStyle(n *RuntimeNode) string {
	switch {
	case n.Def.Type == flow.NodeTypeStart:
		return "start"
	case n.Machine.State() == fsm.Completed:
		return "completed"
	case n.Machine.State() == fsm.Failed:
		return "failed"
	case n.Machine.State() == fsm.Running:
		return "running"
	default:
		return ""
	}
}

func (e *Engine) visualizeMermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for i := range e.def.Nodes {
		nd := &e.def.Nodes[i]
		style := e.nodeStyle(e.nodes[nd.ID])
		if style != "" {
			fmt.Fprintf(&b, "    %s[%s]:::%s\n", nd.ID, nd.ID, style)
		} else {
			fmt.Fprintf(&b, "    %s[%s]\n", nd.ID, nd.ID)
		}
	}
	for _, ed := range e.def.Edges {
		for _, to := range ed.To {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", ed.From, string(ed.Condition), to)
		}
	}
	b.WriteString("    classDef start fill:#FFD700,stroke:#B8860B\n")
	b.WriteString("    classDef completed fill:#90EE90\n")
	b.WriteString("    classDef failed fill:#FFB6C1\n")
	b.WriteString("    classDef running fill:#87CEEB\n")
	return b.String()
}

func (e *Engine) visualizeDot() string {
	var b strings.Builder
	b.WriteString("digraph flow {\n")
	for i := range e.def.Nodes {
		nd := &e.def.Nodes[i]
		shape := "box"
		if nd.Type == flow.NodeTypeStart || nd.Type == flow.NodeTypeEnd {
			shape = "ellipse"
		}
		color := "white"
		switch e.nodeStyle(e.nodes[nd.ID]) {
		case "completed":
			color = "lightgreen"
		case "failed":
			color = "lightpink"
		case "running":
			color = "lightskyblue"
		case "start":
			color = "gold"
		}
		fmt.Fprintf(&b, "  %q [shape=%s, style=filled, fillcolor=%s];\n", nd.ID, shape, color)
	}
	for _, ed := range e.def.Edges {
		for _, to := range ed.To {
			fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", ed.From, to, string(ed.Condition))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// RunStats summarizes dispatch, retry, and timing counts across the
// engine's nodes as of the last Run, mirroring the teacher's
// monitoring.MetricsSummary shape at the scope of a single materialized
// flow rather than a process-wide collector.
type RunStats struct {
	TotalNodes           int
	DispatchedNodes      int
	CompletedNodes       int
	FailedNodes          int
	PendingNodes         int
	TotalRetries         int
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
}

// Stats reports RunStats for the engine's current node states (the last
// completed Run, until the next Run resets them).
func (e *Engine) Stats() RunStats {
	var st RunStats
	st.TotalNodes = len(e.nodes)
	for _, n := range e.nodes {
		if n.dispatched {
			st.DispatchedNodes++
		}
		switch n.Machine.State() {
		case fsm.Completed:
			st.CompletedNodes++
		case fsm.Failed:
			st.FailedNodes++
		default:
			st.PendingNodes++
		}
		st.TotalRetries += n.RetryCount
		if !n.StartedAt.IsZero() && !n.FinishedAt.IsZero() {
			st.TotalExecutionTime += n.FinishedAt.Sub(n.StartedAt)
		}
	}
	if st.DispatchedNodes > 0 {
		st.AverageExecutionTime = st.TotalExecutionTime / time.Duration(st.DispatchedNodes)
	}
	return st
}

// Answer is the result of a one-off Ask query against a named agent,
// enriched with whatever Execution Memory recorded for that agent during
// this Engine's most recent Run (each Run clears the memory first).
type Answer struct {
	Question    string
	AgentName   string
	Response    any
	Context     []memory.AgentResult
	ElapsedTime time.Duration
}

// Ask runs question against the named agent directly, outside the graph:
// a throwaway single-node sub-flow for integrations that want one-off
// agent queries without materializing a whole run. If Execution Memory
// holds prior results for that agent, they're prepended as context the
// same way a dependency's result is (buildPrompt), so the answer can
// refer back to what the agent already produced.
func (e *Engine) Ask(ctx context.Context, agentName, question string) (*Answer, error) {
	a := e.resolveAgent(agentName)
	if a == nil {
		return nil, fmt.Errorf("ask: unknown agent %q", agentName)
	}

	start := time.Now()
	prior := e.Memory.ByAgent(agentName)

	prompt := question
	if len(prior) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Task: %s\n", question)
		b.WriteString("\nContext from previous agents:")
		for _, r := range prior {
			fmt.Fprintf(&b, "\n--- %s ---\n%s", agentName, e.truncate(fmt.Sprint(r.Result)))
		}
		prompt = b.String()
	}

	resp, err := a.Ask(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Question:    question,
		AgentName:   agentName,
		Response:    resp,
		Context:     prior,
		ElapsedTime: time.Since(start),
	}, nil
}

// resolveAgent looks up name the same way node materialization does:
// extraAgents first, then the registry.
func (e *Engine) resolveAgent(name string) agent.Agent {
	if e.extraAgents != nil {
		if a, ok := e.extraAgents[name]; ok {
			return a
		}
	}
	if e.registry != nil {
		if a, ok := e.registry.Get(name); ok {
			return a
		}
	}
	for _, n := range e.nodes {
		if n.Agent != nil && n.Agent.Name() == name {
			return n.Agent
		}
	}
	return nil
}
