package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func linearChain() *Definition {
	d := New("linear")
	d.Nodes = []NodeDefinition{
		{ID: "start", Type: NodeTypeStart},
		{ID: "worker", Type: NodeTypeAgent, AgentRef: "echo"},
		{ID: "end", Type: NodeTypeEnd},
	}
	d.Edges = []EdgeDefinition{
		{From: "start", To: []string{"worker"}, Condition: ConditionAlways},
		{From: "worker", To: []string{"end"}, Condition: ConditionOnSuccess},
	}
	return d
}

func TestValidate_LinearChainOK(t *testing.T) {
	require.NoError(t, linearChain().Validate())
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	d := linearChain()
	d.Nodes = append(d.Nodes, NodeDefinition{ID: "start", Type: NodeTypeEnd})
	require.Error(t, d.Validate())
}

func TestValidate_MissingAgentRef(t *testing.T) {
	d := linearChain()
	d.Nodes[1].AgentRef = ""
	require.Error(t, d.Validate())
}

func TestValidate_UnknownTargetNode(t *testing.T) {
	d := linearChain()
	d.Edges[0].To = []string{"ghost"}
	require.Error(t, d.Validate())
}

func TestValidate_EmptyPredicateOnCondition(t *testing.T) {
	d := linearChain()
	d.Edges[1].Condition = ConditionOnCondition
	require.Error(t, d.Validate())
}

func TestValidate_SelfLoopSkippedNotErrored(t *testing.T) {
	d := linearChain()
	d.Edges = append(d.Edges, EdgeDefinition{From: "worker", To: []string{"worker"}, Condition: ConditionAlways})
	require.NoError(t, d.Validate())
}

func TestBuildDepGraph_EntryNodes(t *testing.T) {
	d := linearChain()
	require.NoError(t, d.Validate())
	g := d.BuildDepGraph()
	require.ElementsMatch(t, []string{"start"}, g.EntryNodes())
	require.True(t, g.IsTerminal("end"))
	require.False(t, g.IsTerminal("start"))
}

func TestJSONRoundTrip(t *testing.T) {
	d := linearChain()
	data, err := d.SaveJSON()
	require.NoError(t, err)

	reloaded, err := LoadJSON(data)
	require.NoError(t, err)
	require.Equal(t, d.Flow, reloaded.Flow)
	require.Len(t, reloaded.Nodes, len(d.Nodes))
	require.Len(t, reloaded.Edges, len(d.Edges))
}
