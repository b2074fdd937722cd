package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/phenobarbital/ai-parrot-sub006/internal/predicate"
)

// SetContextConfig configures the set_context action: write Key into the
// run's shared context, either to a literal Value or to a dotted path
// extracted from the node's payload (ValueFrom, spec §4.2 "value_from").
type SetContextConfig struct {
	Key       string `json:"key"`
	Value     any    `json:"value"`
	ValueFrom string `json:"value_from"`
}

type setContextAction struct {
	cfg SetContextConfig
}

func newSetContextAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[SetContextConfig](config)
	if err != nil {
		return nil, err
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("set_context action requires a key")
	}
	return &setContextAction{cfg: *cfg}, nil
}

func (a *setContextAction) Invoke(_ context.Context, _ string, payload any, actx *Context) error {
	if a.cfg.ValueFrom == "" {
		actx.Set(a.cfg.Key, a.cfg.Value)
		return nil
	}
	value, ok := dotGet(predicate.Coerce(payload), a.cfg.ValueFrom)
	if !ok {
		actx.Set(a.cfg.Key, nil)
		return nil
	}
	actx.Set(a.cfg.Key, value)
	return nil
}

// dotGet walks a dotted path ("result.final_decision") through nested
// maps, the shape predicate.Coerce produces from structs and records. A
// leading "result" segment refers to payload itself and is skipped, since
// payload already is the result.
func dotGet(root any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur := root
	for i, part := range parts {
		if i == 0 && part == "result" {
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
