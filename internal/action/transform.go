package action

import (
	"context"
	"fmt"

	"github.com/phenobarbital/ai-parrot-sub006/internal/predicate"
)

// transformedResultKey is the fixed shared_context key every transform
// action writes its result to (spec §4.2).
const transformedResultKey = "_transformed_result"

// TransformConfig configures the transform action: Expression is evaluated
// with result/error/ctx bound exactly as in edge predicates (spec §4.1).
type TransformConfig struct {
	Expression string `json:"expression"`
}

type transformAction struct {
	cfg  TransformConfig
	expr *predicate.Evaluator
}

func newTransformAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[TransformConfig](config)
	if err != nil {
		return nil, err
	}
	if cfg.Expression == "" {
		return nil, fmt.Errorf("transform action requires an expression")
	}
	return &transformAction{cfg: *cfg, expr: predicate.New()}, nil
}

func (a *transformAction) Invoke(_ context.Context, _ string, payload any, actx *Context) error {
	value, err := a.expr.Value(a.cfg.Expression, payload, "", actx.Snapshot())
	if err != nil {
		return fmt.Errorf("transform action: %w", err)
	}
	actx.Set(transformedResultKey, value)
	return nil
}
