package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phenobarbital/ai-parrot-sub006/internal/agent/echo"
	"github.com/phenobarbital/ai-parrot-sub006/internal/engine"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

func sampleDefinition() *flow.Definition {
	d := flow.New("sample")
	d.Nodes = []flow.NodeDefinition{
		{ID: "start", Type: flow.NodeTypeStart},
		{ID: "worker", Type: flow.NodeTypeAgent, AgentRef: "echo"},
		{ID: "end", Type: flow.NodeTypeEnd},
	}
	d.Edges = []flow.EdgeDefinition{
		{From: "start", To: []string{"worker"}, Condition: flow.ConditionAlways},
		{From: "worker", To: []string{"end"}, Condition: flow.ConditionOnSuccess},
	}
	return d
}

func TestFileRoundTrip(t *testing.T) {
	d := sampleDefinition()
	path := filepath.Join(t.TempDir(), "sample.json")

	require.NoError(t, SaveFile(path, d))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, d.Flow, loaded.Flow)
	require.Len(t, loaded.Nodes, len(d.Nodes))
}

func TestKVStoreRoundTrip(t *testing.T) {
	store, err := OpenKVStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.InitSchema(ctx))

	d := sampleDefinition()
	require.NoError(t, store.Save(ctx, d))

	loaded, err := store.Load(ctx, "sample")
	require.NoError(t, err)
	require.Equal(t, d.Flow, loaded.Flow)

	names, err := store.List(ctx)
	require.NoError(t, err)
	require.Contains(t, names, "sample")

	require.NoError(t, store.Delete(ctx, "sample"))
	_, err = store.Load(ctx, "sample")
	require.Error(t, err)
}

func TestToEngine_MaterializesAndRuns(t *testing.T) {
	d := sampleDefinition()
	registry := agent.StaticRegistry{"echo": echo.New("echo", "")}

	e, err := ToEngine(d, registry, nil)
	require.NoError(t, err)

	result, err := e.Run(context.Background(), "task", engine.RunOptions{})
	require.NoError(t, err)
	require.Equal(t, engine.StatusCompleted, result.Status)
}
