package flow

import (
	"encoding/json"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flowerrors"
)

// LoadJSON parses and validates a Flow Definition from JSON bytes.
// Validation failure is fatal per spec §7.
func LoadJSON(data []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, flowerrors.NewDefinitionError(flowerrors.ErrCodeInvalidJSON, "invalid flow definition JSON", err)
	}
	if d.Version == "" {
		d.Version = "1.0"
	}
	if d.Metadata.MaxParallelTasks == 0 {
		d.Metadata.MaxParallelTasks = DefaultMetadata().MaxParallelTasks
	}
	if d.Metadata.VectorDimension == 0 {
		d.Metadata.VectorDimension = DefaultMetadata().VectorDimension
	}
	if d.Metadata.VectorIndexType == "" {
		d.Metadata.VectorIndexType = DefaultMetadata().VectorIndexType
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveJSON serializes the definition as pretty JSON.
func (d *Definition) SaveJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
