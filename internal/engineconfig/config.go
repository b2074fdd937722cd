// Package engineconfig holds the process-wide defaults for engine tunables
// that a Flow Definition's metadata may override at load time.
package engineconfig

import "time"

// Config mirrors the tunables carried by Flow Definition metadata (spec
// §3); DefaultConfig supplies the process-wide fallback when metadata
// omits a field.
type Config struct {
	MaxParallelTasks     int
	DefaultMaxRetries    int
	ExecutionTimeout     time.Duration // zero means unbounded
	TruncationLength     int           // zero means unbounded
	EnableExecutionMemory bool
	EmbeddingModel       string
	VectorDimension      int
	VectorIndexType      string

	IterationCap int // main-loop round cap, spec default 100
}

// DefaultConfig returns the engine's process-wide defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxParallelTasks:      10,
		DefaultMaxRetries:     3,
		ExecutionTimeout:      0,
		TruncationLength:      0,
		EnableExecutionMemory: true,
		EmbeddingModel:        "",
		VectorDimension:       384,
		VectorIndexType:       "Flat",
		IterationCap:          100,
	}
}
