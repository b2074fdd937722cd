// Package persistence implements the Loader/Persistence layer (spec §4.6):
// file- and key-value-backed storage for Flow Definitions, plus
// materialization of a definition into a runnable engine.
package persistence

import (
	"fmt"
	"os"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
)

// LoadFile reads and validates a Flow Definition from a JSON file on disk.
func LoadFile(path string) (*flow.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load flow file %s: %w", path, err)
	}
	return flow.LoadJSON(data)
}

// SaveFile writes def as pretty JSON to path.
func SaveFile(path string, def *flow.Definition) error {
	data, err := def.SaveJSON()
	if err != nil {
		return fmt.Errorf("marshal flow %s: %w", def.Flow, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save flow file %s: %w", path, err)
	}
	return nil
}
