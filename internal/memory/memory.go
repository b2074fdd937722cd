// Package memory implements the Execution Memory result store (spec §4.5):
// an append-only log of per-agent results for one run, with an optional
// in-process vector index for semantic retrieval.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AgentResult is one recorded agent invocation outcome.
type AgentResult struct {
	ID        string
	AgentID   string
	NodeID    string
	Query     string
	Result    any
	Embedding []float64
	Timestamp time.Time
}

// Store is the per-run result memory. Safe for concurrent use by the
// engine's parallel node workers.
type Store struct {
	mu      sync.RWMutex
	results []AgentResult
	index   Index
}

// New returns an empty Store. If enableVector is true and dim > 0 a vector
// index of the given indexType ("Flat", "FlatIP", "HNSW") is attached;
// otherwise semantic search is unavailable and SearchSemantic returns an
// empty slice.
func New(enableVector bool, dim int, indexType string) *Store {
	s := &Store{}
	if enableVector && dim > 0 {
		s.index = NewIndex(indexType, dim)
	}
	return s
}

// Add appends a result, indexing its embedding if present and a vector
// index is attached.
func (s *Store) Add(agentID, nodeID, query string, result any, embedding []float64) AgentResult {
	rec := AgentResult{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		NodeID:    nodeID,
		Query:     query,
		Result:    result,
		Embedding: embedding,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, rec)
	if s.index != nil && len(embedding) > 0 {
		s.index.Add(rec.ID, embedding)
	}
	return rec
}

// Clear empties the store. If keepQuery is non-empty, results whose Query
// contains it are retained (spec §4.5 "clear(keep_query?)").
func (s *Store) Clear(keepQuery string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keepQuery == "" {
		s.results = nil
		if s.index != nil {
			s.index.Reset()
		}
		return
	}
	kept := s.results[:0]
	for _, r := range s.results {
		if containsFold(r.Query, keepQuery) {
			kept = append(kept, r)
		}
	}
	s.results = kept
}

// ByAgent returns every result recorded for agentID, in insertion order.
func (s *Store) ByAgent(agentID string) []AgentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AgentResult
	for _, r := range s.results {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot returns every result recorded so far, in insertion order.
func (s *Store) Snapshot() []AgentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AgentResult, len(s.results))
	copy(out, s.results)
	return out
}

// SearchResult pairs a result with its similarity score.
type SearchResult struct {
	AgentResult
	Score float64
}

// SearchSemantic returns the topK most similar results to queryEmbedding.
// Returns an empty slice if no vector index is attached.
func (s *Store) SearchSemantic(queryEmbedding []float64, topK int) []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil
	}
	hits := s.index.Search(queryEmbedding, topK)

	byID := make(map[string]AgentResult, len(s.results))
	for _, r := range s.results {
		byID[r.ID] = r
	}

	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		rec, ok := byID[h.ID]
		if !ok {
			continue
		}
		out = append(out, SearchResult{AgentResult: rec, Score: h.Score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	hl, nl := []rune(haystack), []rune(needle)
	toLower := func(rs []rune) []rune {
		out := make([]rune, len(rs))
		for i, r := range rs {
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			out[i] = r
		}
		return out
	}
	hl, nl = toLower(hl), toLower(nl)
	if len(nl) > len(hl) {
		return false
	}
	for i := 0; i+len(nl) <= len(hl); i++ {
		match := true
		for j := range nl {
			if hl[i+j] != nl[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
