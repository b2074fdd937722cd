package visual

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
)

func fanOutDefinition() *flow.Definition {
	d := flow.New("fanout")
	d.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart, Position: &flow.Position{X: 1, Y: 2}},
		{ID: "a", Type: flow.NodeTypeAgent, AgentRef: "echo", Position: &flow.Position{X: 3, Y: 4}},
		{ID: "b", Type: flow.NodeTypeAgent, AgentRef: "echo", Position: &flow.Position{X: 5, Y: 6}},
	}
	d.Edges = []flow.EdgeDefinition{
		{ID: "e1", From: "start", To: []string{"a", "b"}, Condition: flow.ConditionAlways, Priority: 1, Label: "fan"},
	}
	return d
}

func TestToVisual_ExpandsFanOut(t *testing.T) {
	doc := ToVisual(fanOutDefinition())
	require.Len(t, doc.Nodes, 3)
	require.Len(t, doc.Edges, 2)

	var targets []string
	for _, e := range doc.Edges {
		require.Equal(t, "start", e.Source)
		targets = append(targets, e.Target)
	}
	require.ElementsMatch(t, []string{"a", "b"}, targets)
}

func TestVisualRoundTrip_PreservesShape(t *testing.T) {
	original := fanOutDefinition()
	doc := ToVisual(original)
	rebuilt := FromVisual(doc, original.Flow)

	require.Len(t, rebuilt.Nodes, len(original.Nodes))
	require.Len(t, rebuilt.Edges, 1) // re-grouped back into one fan-out edge
	require.ElementsMatch(t, []string{"a", "b"}, rebuilt.Edges[0].To)
	require.Equal(t, flow.ConditionAlways, rebuilt.Edges[0].Condition)
	require.Equal(t, 1, rebuilt.Edges[0].Priority)

	startNode, ok := rebuilt.NodeByID("start")
	require.True(t, ok)
	require.Equal(t, 1.0, startNode.Position.X)
	require.Equal(t, 2.0, startNode.Position.Y)
}

func TestVisualRoundTrip_DistinctConditionsStaySeparate(t *testing.T) {
	d := flow.New("routing")
	d.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "a", Type: flow.NodeTypeEnd},
		{ID: "b", Type: flow.NodeTypeEnd},
	}
	d.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"a"}, Condition: flow.ConditionOnCondition, Predicate: `result == "a"`},
		{From: "start", To: []string{"b"}, Condition: flow.ConditionOnCondition, Predicate: `result == "b"`},
	}

	doc := ToVisual(d)
	require.Len(t, doc.Edges, 2)

	rebuilt := FromVisual(doc, d.Flow)
	require.Len(t, rebuilt.Edges, 2) // distinct predicates never merge
}
