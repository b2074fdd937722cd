package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phenobarbital/ai-parrot-sub006/internal/agent/echo"
	"github.com/phenobarbital/ai-parrot-sub006/internal/engineconfig"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

func cfg() engineconfig.Config {
	c := engineconfig.DefaultConfig()
	c.EnableExecutionMemory = false
	return *c
}

func TestRun_LinearChain(t *testing.T) {
	def := flow.New("linear")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo", Instruction: "do work"},
		{ID: "end", Type: flow.NodeTypeEnd},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"worker"}, Condition: flow.ConditionAlways},
		{From: "worker", To: []string{"end"}, Condition: flow.ConditionOnSuccess},
	}
	require.NoError(t, def.Validate())

	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, StatusCompleted, result.Nodes["start"].Status)
	require.Equal(t, StatusCompleted, result.Nodes["worker"].Status)
	require.Equal(t, StatusCompleted, result.Nodes["end"].Status)
}

func TestRun_ConditionalRouting(t *testing.T) {
	def := flow.New("routing")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "router", Type: flow.NodeTypeAgent, AgentRef: "decider"},
		{ID: "branch_a", Type: flow.NodeTypeEnd},
		{ID: "branch_b", Type: flow.NodeTypeEnd},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"router"}, Condition: flow.ConditionAlways},
		{From: "router", To: []string{"branch_a"}, Condition: flow.ConditionOnCondition, Predicate: `result.category == "category_a"`},
		{From: "router", To: []string{"branch_b"}, Condition: flow.ConditionOnCondition, Predicate: `result.category == "category_b"`},
	}
	require.NoError(t, def.Validate())

	registry := agent.StaticRegistry{"decider": echo.New("decider", "category")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "category_a", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, StatusCompleted, result.Nodes["branch_a"].Status)
	require.Equal(t, StatusPending, result.Nodes["branch_b"].Status)
}

func TestRun_FanOut(t *testing.T) {
	def := flow.New("fanout")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "a", Type: flow.NodeTypeAgent, AgentRef: "echo"},
		{ID: "b", Type: flow.NodeTypeAgent, AgentRef: "echo"},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"a", "b"}, Condition: flow.ConditionAlways},
	}
	require.NoError(t, def.Validate())

	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, StatusCompleted, result.Nodes["a"].Status)
	require.Equal(t, StatusCompleted, result.Nodes["b"].Status)
}

// flakyAgent fails its first N calls then succeeds.
type flakyAgent struct {
	name       string
	failTimes  int
	calls      int
}

func (a *flakyAgent) Name() string                      { return a.name }
func (a *flakyAgent) Configure(map[string]any) error     { return nil }
func (a *flakyAgent) Ask(_ context.Context, prompt string, _ map[string]any) (any, error) {
	a.calls++
	if a.calls <= a.failTimes {
		return nil, errors.New("transient failure")
	}
	return prompt, nil
}

func TestRun_RetryThenSucceed(t *testing.T) {
	def := flow.New("retry")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "flaky", Type: flow.NodeTypeAgent, AgentRef: "flaky", MaxRetries: 3},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"flaky"}, Condition: flow.ConditionAlways},
	}
	require.NoError(t, def.Validate())

	fa := &flakyAgent{name: "flaky", failTimes: 2}
	registry := agent.StaticRegistry{"flaky": fa}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, StatusCompleted, result.Nodes["flaky"].Status)
	require.Equal(t, 2, result.Nodes["flaky"].RetryCount)
	require.Equal(t, 3, fa.calls)
}

func TestRun_TerminalFailure(t *testing.T) {
	def := flow.New("fails")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "broken", Type: flow.NodeTypeAgent, AgentRef: "broken", MaxRetries: 0},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"broken"}, Condition: flow.ConditionAlways},
	}
	require.NoError(t, def.Validate())

	fa := &flakyAgent{name: "broken", failTimes: 100}
	registry := agent.StaticRegistry{"broken": fa}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, StatusFailed, result.Nodes["broken"].Status)
}

func TestNew_UnknownAgentRefIsFatal(t *testing.T) {
	def := flow.New("bad")
	def.Nodes = []flow.NodeDefinition{
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "ghost"},
	}
	_, err := New(def, agent.StaticRegistry{}, nil, cfg())
	require.Error(t, err)
}

func TestEngine_VisualizeMermaidAndDot(t *testing.T) {
	def := flow.New("linear")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo"},
		{ID: "end", Type: flow.NodeTypeEnd},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"worker"}, Condition: flow.ConditionAlways},
		{From: "worker", To: []string{"end"}, Condition: flow.ConditionOnSuccess},
	}
	require.NoError(t, def.Validate())

	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	_, err = e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)

	mermaid, err := e.Visualize("mermaid")
	require.NoError(t, err)
	require.Contains(t, mermaid, "graph TD")
	require.Contains(t, mermaid, "worker[worker]:::completed")
	require.Contains(t, mermaid, "start -->|always| worker")

	dot, err := e.Visualize("dot")
	require.NoError(t, err)
	require.Contains(t, dot, "digraph flow {")
	require.Contains(t, dot, `"worker" [shape=box, style=filled, fillcolor=lightgreen];`)

	_, err = e.Visualize("svg")
	require.Error(t, err)
}

func TestEngine_Stats(t *testing.T) {
	def := flow.New("linear")
	def.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo"},
		{ID: "end", Type: flow.NodeTypeEnd},
	}
	def.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"worker"}, Condition: flow.ConditionAlways},
		{From: "worker", To: []string{"end"}, Condition: flow.ConditionOnSuccess},
	}
	require.NoError(t, def.Validate())

	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	_, err = e.Run(context.Background(), "task", RunOptions{})
	require.NoError(t, err)

	stats := e.Stats()
	require.Equal(t, 3, stats.TotalNodes)
	require.Equal(t, 3, stats.DispatchedNodes)
	require.Equal(t, 3, stats.CompletedNodes)
	require.Equal(t, 0, stats.FailedNodes)
}

func TestEngine_AskRunsAgentDirectly(t *testing.T) {
	def := flow.New("linear")
	def.Nodes = []flow.NodeDefinition{
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo"},
	}

	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}
	e, err := New(def, registry, nil, cfg())
	require.NoError(t, err)

	ans, err := e.Ask(context.Background(), "echo", "what happened?")
	require.NoError(t, err)
	require.Equal(t, "echo", ans.AgentName)
	require.Equal(t, "what happened?", ans.Response)

	_, err = e.Ask(context.Background(), "ghost", "anything?")
	require.Error(t, err)
}

func TestNew_ExtraAgentsTakePriority(t *testing.T) {
	def := flow.New("priority")
	def.Nodes = []flow.NodeDefinition{
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo"},
	}
	registry := agent.StaticRegistry{"echo": echo.New("echo", "from_registry")}
	extra := map[string]agent.Agent{"echo": echo.New("echo", "from_extra")}
	e, err := New(def, registry, extra, cfg())
	require.NoError(t, err)
	require.Equal(t, "from_extra", e.nodes["worker"].Agent.(*echo.Agent).Key)
}
