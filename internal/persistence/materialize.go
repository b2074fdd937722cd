package persistence

import (
	"time"

	"github.com/phenobarbital/ai-parrot-sub006/internal/engine"
	"github.com/phenobarbital/ai-parrot-sub006/internal/engineconfig"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/internal/utils"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// ToEngine materializes a validated Flow Definition into a runnable
// engine.Engine (spec §4.6 "to_engine"). registry resolves agent_ref by
// name; extraAgents takes priority over registry for the same name.
// Resolving a reference neither can satisfy is a fatal MaterializationError
// surfaced from engine.New. opts forwards engine.Option (e.g.
// engine.WithActionRegistry for custom action types).
func ToEngine(def *flow.Definition, registry agent.Registry, extraAgents map[string]agent.Agent, opts ...engine.Option) (*engine.Engine, error) {
	return engine.New(def, registry, extraAgents, configFromMetadata(def.Metadata), opts...)
}

// configFromMetadata derives an engineconfig.Config from a Flow
// Definition's own metadata overrides, falling back to engineconfig's
// defaults for anything the definition leaves unset.
func configFromMetadata(meta flow.Metadata) engineconfig.Config {
	cfg := engineconfig.DefaultConfig()

	cfg.MaxParallelTasks = utils.DefaultValue(meta.MaxParallelTasks, cfg.MaxParallelTasks)
	cfg.DefaultMaxRetries = utils.DefaultValue(meta.DefaultMaxRetries, cfg.DefaultMaxRetries)
	cfg.EmbeddingModel = utils.DefaultValue(meta.EmbeddingModel, cfg.EmbeddingModel)
	cfg.VectorDimension = utils.DefaultValue(meta.VectorDimension, cfg.VectorDimension)
	cfg.VectorIndexType = utils.DefaultValue(meta.VectorIndexType, cfg.VectorIndexType)
	cfg.EnableExecutionMemory = meta.EnableExecutionMemory

	if meta.ExecutionTimeout != nil {
		cfg.ExecutionTimeout = time.Duration(*meta.ExecutionTimeout * float64(time.Second))
	}
	if meta.TruncationLength != nil {
		cfg.TruncationLength = *meta.TruncationLength
	}

	return *cfg
}
