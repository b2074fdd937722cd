// Package action implements the Action Runtime (spec §4.2): a registry of
// named lifecycle actions invoked before/after a node's execution, each
// instantiated from a typed config at load time.
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flowerrors"
)

// Context carries the mutable shared state a run's actions see on every
// invocation. SharedContext is mutated only by set_context, transform, and
// validate (its fallback mode); everything else reads it. It is shared across concurrently-dispatched
// nodes within a wave, so all access goes through its mutex-guarded
// methods — never read/write SharedContext directly.
type Context struct {
	mu            sync.Mutex
	SharedContext map[string]any
	Task          string
}

func NewContext(task string) *Context {
	return &Context{SharedContext: make(map[string]any), Task: task}
}

func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SharedContext[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.SharedContext[key]
	return v, ok
}

func (c *Context) Snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.SharedContext))
	for k, v := range c.SharedContext {
		out[k] = v
	}
	return out
}

// Action is one named lifecycle hook. payload is the prompt for
// pre-actions, the result for post-actions.
type Action interface {
	Invoke(ctx context.Context, nodeName string, payload any, actx *Context) error
}

// Constructor builds an Action from its typed config map.
type Constructor func(config map[string]any) (Action, error)

// Registry maps an action type tag to its constructor. Extensions register
// their own tags at startup (spec §4.2 "Registry").
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a Registry pre-populated with the seven built-in
// action types.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("log", newLogAction)
	r.Register("notify", newNotifyAction)
	r.Register("webhook", newWebhookAction)
	r.Register("metric", newMetricAction)
	r.Register("set_context", newSetContextAction)
	r.Register("validate", newValidateAction)
	r.Register("transform", newTransformAction)
	return r
}

// Register adds or replaces the constructor for a type tag.
func (r *Registry) Register(tag string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[tag] = ctor
}

// Make instantiates the Action named by typeTag with the given config.
func (r *Registry) Make(typeTag string, config map[string]any) (Action, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[typeTag]
	r.mu.RUnlock()
	if !ok {
		return nil, flowerrors.NewDefinitionError(
			flowerrors.ErrCodeUnknownActionType,
			fmt.Sprintf("unknown action type %q", typeTag),
			nil,
		)
	}
	return ctor(config)
}

// parseConfig converts a map[string]any configuration into a typed struct
// via a JSON marshal/unmarshal round trip, matching the teacher's generic
// config-coercion idiom.
func parseConfig[T any](config map[string]any) (*T, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal action config: %w", err)
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal action config: %w", err)
	}
	return &result, nil
}
