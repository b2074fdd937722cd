// Package echo provides a reference Agent implementation that returns its
// prompt unchanged, used for wiring tests and worked examples (spec
// scenarios S1-S3 need no real model to exercise routing and fan-out).
package echo

import "context"

// Agent echoes its prompt back as the result, optionally wrapped in a
// map under Key so predicate expressions can address it by field
// (e.g. "result.final_decision") the same way a structured agent would.
type Agent struct {
	AgentName string
	Key       string
}

// New returns an echo Agent named name. If key is non-empty, Ask wraps
// its response as map[string]any{key: prompt} instead of returning the
// bare string.
func New(name, key string) *Agent {
	return &Agent{AgentName: name, Key: key}
}

func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Configure(map[string]any) error { return nil }

func (a *Agent) Ask(_ context.Context, prompt string, _ map[string]any) (any, error) {
	if a.Key == "" {
		return prompt, nil
	}
	return map[string]any{a.Key: prompt}, nil
}
