package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// ValidateConfig configures the validate action: Schema is a JSON-schema
// document; OnFailure is one of "raise" (default, aborts the node),
// "skip" (warns and lets the node proceed), or "fallback" (warns, records
// FallbackValue in the shared context, and lets the node proceed).
type ValidateConfig struct {
	Schema        map[string]any `json:"schema"`
	OnFailure     string         `json:"on_failure"`
	FallbackValue any            `json:"fallback_value,omitempty"`
}

type validateAction struct {
	cfg    ValidateConfig
	schema *jsonschema.Schema
}

func newValidateAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[ValidateConfig](config)
	if err != nil {
		return nil, err
	}
	if cfg.OnFailure == "" {
		cfg.OnFailure = "raise"
	}

	schemaBytes, err := json.Marshal(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("validate action: marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("action-schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("validate action: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("action-schema.json")
	if err != nil {
		return nil, fmt.Errorf("validate action: compile schema: %w", err)
	}

	return &validateAction{cfg: *cfg, schema: schema}, nil
}

func (a *validateAction) Invoke(_ context.Context, nodeName string, payload any, actx *Context) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("validate action: marshal payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("validate action: unmarshal payload: %w", err)
	}

	if err := a.schema.Validate(doc); err != nil {
		switch a.cfg.OnFailure {
		case "skip":
			telemetry.L().Warn().Str("node", nodeName).Err(err).Msg("validate action: schema mismatch, skipping")
			return nil
		case "fallback":
			telemetry.L().Warn().Str("node", nodeName).Err(err).Msg("validate action: schema mismatch, recording fallback")
			actx.Set(fallbackContextKey(nodeName), a.cfg.FallbackValue)
			return nil
		default: // "raise"
			return fmt.Errorf("validate action: %w", err)
		}
	}
	return nil
}

// fallbackContextKey is where a validate action's fallback_value is
// recorded for downstream use (spec §4.2), namespaced per node since
// shared_context is run-wide and multiple nodes may validate concurrently.
func fallbackContextKey(nodeName string) string {
	return nodeName + "_validation_fallback"
}
