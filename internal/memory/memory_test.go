package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndByAgent(t *testing.T) {
	s := New(false, 0, "")
	s.Add("agentA", "n1", "q1", map[string]any{"v": 1}, nil)
	s.Add("agentB", "n2", "q2", map[string]any{"v": 2}, nil)
	s.Add("agentA", "n3", "q3", map[string]any{"v": 3}, nil)

	got := s.ByAgent("agentA")
	require.Len(t, got, 2)
	require.Equal(t, "n1", got[0].NodeID)
	require.Equal(t, "n3", got[1].NodeID)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(false, 0, "")
	s.Add("a", "n1", "q", 1, nil)
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	s.Add("a", "n2", "q", 2, nil)
	require.Len(t, snap, 1) // unaffected by later writes
}

func TestClearAll(t *testing.T) {
	s := New(false, 0, "")
	s.Add("a", "n1", "q", 1, nil)
	s.Clear("")
	require.Empty(t, s.Snapshot())
}

func TestClearKeepsMatchingQuery(t *testing.T) {
	s := New(false, 0, "")
	s.Add("a", "n1", "keep me", 1, nil)
	s.Add("a", "n2", "drop me", 2, nil)
	s.Clear("keep")
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, "n1", snap[0].NodeID)
}

func TestSearchSemantic_NoIndexReturnsEmpty(t *testing.T) {
	s := New(false, 0, "")
	s.Add("a", "n1", "q", 1, []float64{1, 0, 0})
	require.Empty(t, s.SearchSemantic([]float64{1, 0, 0}, 5))
}

func TestSearchSemantic_FlatRanksBySimilarity(t *testing.T) {
	s := New(true, 3, "Flat")
	s.Add("a", "n1", "exact", "r1", []float64{1, 0, 0})
	s.Add("a", "n2", "orthogonal", "r2", []float64{0, 1, 0})
	s.Add("a", "n3", "close", "r3", []float64{0.9, 0.1, 0})

	hits := s.SearchSemantic([]float64{1, 0, 0}, 2)
	require.Len(t, hits, 2)
	require.Equal(t, "n1", hits[0].NodeID)
	require.Equal(t, "n3", hits[1].NodeID)
}

func TestSearchSemantic_HNSWAliasWorks(t *testing.T) {
	s := New(true, 2, "HNSW")
	s.Add("a", "n1", "q", "r1", []float64{1, 1})
	hits := s.SearchSemantic([]float64{1, 1}, 1)
	require.Len(t, hits, 1)
}
