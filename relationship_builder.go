package flowengine

// EdgeBuilder provides a fluent interface for attaching edges to a Flow
// Definition's node graph without hand-assembling EdgeDefinition literals.
//
// Example usage:
//
//	flowengine.NewEdgeBuilder(def).
//	    Always(startNode, routerNode).
//	    FanOut(routerNode, []string{"branchA", "branchB"}).
//	    OnSuccess(branchANode, joinNode).
//	    OnCondition(routerNode, "escalate", `category == "urgent"`).
//	    Apply()
type EdgeBuilder struct {
	def   *Definition
	edges []EdgeDefinition
}

// NewEdgeBuilder starts a builder over def. Call Apply to commit the
// accumulated edges onto def.Edges.
func NewEdgeBuilder(def *Definition) *EdgeBuilder {
	return &EdgeBuilder{def: def}
}

// Always adds an unconditional edge from one node to another.
func (b *EdgeBuilder) Always(from, to string) *EdgeBuilder {
	return b.add(from, []string{to}, ConditionAlways, "", 0)
}

// FanOut adds one always-fires edge from a single source to every target,
// all of which become eligible to run in the same wave once from
// completes.
func (b *EdgeBuilder) FanOut(from string, to []string) *EdgeBuilder {
	return b.add(from, to, ConditionAlways, "", 0)
}

// OnSuccess adds an edge that fires only if from completed successfully.
func (b *EdgeBuilder) OnSuccess(from, to string) *EdgeBuilder {
	return b.add(from, []string{to}, ConditionOnSuccess, "", 0)
}

// OnError adds an edge that fires only if from failed terminally.
func (b *EdgeBuilder) OnError(from, to string) *EdgeBuilder {
	return b.add(from, []string{to}, ConditionOnError, "", 0)
}

// OnCondition adds an edge that fires only if predicate evaluates truthy
// against from's result (spec §4.1, expr-lang syntax).
func (b *EdgeBuilder) OnCondition(from, to, predicate string) *EdgeBuilder {
	return b.add(from, []string{to}, ConditionOnCondition, predicate, 0)
}

// Priority sets the priority of the most recently added edge, used to
// break ties when more than one incoming conditional edge fires at once.
func (b *EdgeBuilder) Priority(p int) *EdgeBuilder {
	if n := len(b.edges); n > 0 {
		b.edges[n-1].Priority = p
	}
	return b
}

func (b *EdgeBuilder) add(from string, to []string, cond EdgeCondition, predicate string, priority int) *EdgeBuilder {
	b.edges = append(b.edges, EdgeDefinition{
		From:      from,
		To:        to,
		Condition: cond,
		Predicate: predicate,
		Priority:  priority,
	})
	return b
}

// Apply commits the accumulated edges onto the underlying Definition and
// returns it, for chaining into Validate/SaveFile/etc.
func (b *EdgeBuilder) Apply() *Definition {
	b.def.Edges = append(b.def.Edges, b.edges...)
	return b.def
}
