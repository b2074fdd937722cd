package flowengine

import (
	"github.com/phenobarbital/ai-parrot-sub006/internal/visual"
)

// Visual-Builder Adapter types (spec §4.7): a flat nodes[]/edges[] document
// shape for a node-and-wire UI, bidirectional with the Flow Definition's
// fan-out edge shape (edge IDs are not carried back by FromVisual).
type (
	VisualDocument = visual.Document
	VisualNode     = visual.VisualNode
	VisualEdge     = visual.VisualEdge
)

// ToVisual flattens a Flow Definition's fan-out edges into one VisualEdge
// per (source, target) pair for rendering on a canvas.
func ToVisual(def *Definition) *VisualDocument {
	return visual.ToVisual(def)
}

// FromVisual re-groups a VisualDocument's flat edges back into fan-out
// EdgeDefinitions, the inverse of ToVisual.
func FromVisual(doc *VisualDocument, flowName string) *Definition {
	return visual.FromVisual(doc, flowName)
}
