package flowengine

import (
	"github.com/phenobarbital/ai-parrot-sub006/internal/action"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// Action Runtime config shapes (spec §4.2), one per built-in action type.
type (
	LogConfig        = action.LogConfig
	NotifyConfig     = action.NotifyConfig
	WebhookConfig    = action.WebhookConfig
	MetricConfig     = action.MetricConfig
	SetContextConfig = action.SetContextConfig
	ValidateConfig   = action.ValidateConfig
	TransformConfig  = action.TransformConfig
)

// ActionRegistry re-exports the Action Runtime's registry so callers can
// register custom action types before materializing a Definition.
type ActionRegistry = action.Registry

// NewActionRegistry returns a registry pre-populated with the built-in
// action types (log, notify, webhook, metric, set_context, validate,
// transform).
func NewActionRegistry() *ActionRegistry {
	return action.NewRegistry()
}

// Agent capability (spec §6).
type (
	Agent         = agent.Agent
	AgentRegistry = agent.Registry
	StaticAgents  = agent.StaticRegistry
)
