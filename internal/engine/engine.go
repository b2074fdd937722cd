// Package engine implements the Flow Engine (spec §4.4): the orchestrator
// that drives a Flow Definition's nodes through their FSMs in dependency
// order, dispatching ready nodes in parallel waves, evaluating edge
// transitions, retrying failed nodes with backoff, and aggregating a
// RunResult.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/phenobarbital/ai-parrot-sub006/internal/action"
	"github.com/phenobarbital/ai-parrot-sub006/internal/engineconfig"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
	"github.com/phenobarbital/ai-parrot-sub006/internal/flowerrors"
	"github.com/phenobarbital/ai-parrot-sub006/internal/fsm"
	"github.com/phenobarbital/ai-parrot-sub006/internal/memory"
	"github.com/phenobarbital/ai-parrot-sub006/internal/predicate"
	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
	"github.com/phenobarbital/ai-parrot-sub006/pkg/agent"
)

// incomingEdge is one (source -> this node) edge, expanded out of the
// Flow Definition's fan-out EdgeDefinition shape for per-target routing.
type incomingEdge struct {
	From        string
	Condition   flow.EdgeCondition
	Predicate   string
	Instruction string
	Priority    int
}

// Engine is a materialized, runnable Flow Definition.
type Engine struct {
	def         *flow.Definition
	graph       *flow.DepGraph
	nodes       map[string]*RuntimeNode
	successors  map[string][]string
	edgesByTo   map[string][]incomingEdge
	actions     *action.Registry
	predicate   *predicate.Evaluator
	Memory      *memory.Store
	config      engineconfig.Config
	tracer      trace.Tracer
	registry    agent.Registry
	extraAgents map[string]agent.Agent
	mu          sync.Mutex // not locked by any method: Run resets and mutates node state without it
}

// Option configures an Engine at materialization time.
type Option func(*engineOptions)

type engineOptions struct {
	actions *action.Registry
}

// WithActionRegistry supplies a Registry pre-populated with custom action
// types (spec §4.2: actions are an open set via tag/constructor
// registration). Omit to use the built-in registry.
func WithActionRegistry(r *action.Registry) Option {
	return func(o *engineOptions) { o.actions = r }
}

// New materializes def against an agent registry and optional per-call
// extra agents (which take priority over the registry for the same
// name, spec §6). Resolving an agent_ref neither extraAgents nor agents
// can satisfy is a fatal MaterializationError.
func New(def *flow.Definition, agents agent.Registry, extraAgents map[string]agent.Agent, cfg engineconfig.Config, opts ...Option) (*Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	options := engineOptions{actions: action.NewRegistry()}
	for _, opt := range opts {
		opt(&options)
	}

	graph := def.BuildDepGraph()
	actions := options.actions

	e := &Engine{
		def:        def,
		graph:      graph,
		nodes:      make(map[string]*RuntimeNode, len(def.Nodes)),
		successors: make(map[string][]string),
		edgesByTo:  make(map[string][]incomingEdge),
		actions:    actions,
		predicate:  predicate.New(),
		Memory:     memory.New(def.Metadata.EnableExecutionMemory, def.Metadata.VectorDimension, def.Metadata.VectorIndexType),
		config:      cfg,
		tracer:      otel.Tracer("ai-parrot-sub006/engine"),
		registry:    agents,
		extraAgents: extraAgents,
	}

	for i := range def.Nodes {
		nd := &def.Nodes[i]
		var resolved agent.Agent
		if nd.AgentRef != "" {
			if extraAgents != nil {
				if a, ok := extraAgents[nd.AgentRef]; ok {
					resolved = a
				}
			}
			if resolved == nil && agents != nil {
				if a, ok := agents.Get(nd.AgentRef); ok {
					resolved = a
				}
			}
			if resolved == nil {
				return nil, flowerrors.NewMaterializationError(
					flowerrors.ErrCodeAgentNotFound,
					fmt.Sprintf("node %s references unknown agent %q", nd.ID, nd.AgentRef),
					nil,
				)
			}
		}

		rn := newRuntimeNode(nd, graph.Dependencies(nd.ID), resolved)
		for _, ad := range nd.PreActions {
			a, err := actions.Make(ad.Type, ad.Config)
			if err != nil {
				return nil, flowerrors.NewMaterializationError(
					flowerrors.ErrCodeUnknownActionType,
					fmt.Sprintf("node %s pre_action: %v", nd.ID, err),
					err,
				)
			}
			rn.PreActions = append(rn.PreActions, a)
		}
		for _, ad := range nd.PostActions {
			a, err := actions.Make(ad.Type, ad.Config)
			if err != nil {
				return nil, flowerrors.NewMaterializationError(
					flowerrors.ErrCodeUnknownActionType,
					fmt.Sprintf("node %s post_action: %v", nd.ID, err),
					err,
				)
			}
			rn.PostActions = append(rn.PostActions, a)
		}
		e.nodes[nd.ID] = rn
	}

	for _, ed := range def.Edges {
		for _, to := range ed.To {
			e.successors[ed.From] = append(e.successors[ed.From], to)
			e.edgesByTo[to] = append(e.edgesByTo[to], incomingEdge{
				From:        ed.From,
				Condition:   ed.Condition,
				Predicate:   ed.Predicate,
				Instruction: ed.Instruction,
				Priority:    ed.Priority,
			})
		}
	}

	for _, ed := range def.Edges {
		if ed.Condition == flow.ConditionOnCondition {
			if err := e.predicate.Compile(ed.Predicate); err != nil {
				return nil, err
			}
		}
	}

	return e, nil
}

// RunOptions configures a single run (spec §4.4 "run(...)").
type RunOptions struct {
	EntryPoint      string
	OnAgentComplete func(nodeID string, result any, err error)
	Timeout         time.Duration
}

// Run drives the flow to completion from task, dispatching independent
// nodes in parallel waves bounded by MaxParallelTasks. opts.Timeout, or
// the configured ExecutionTimeout when opts.Timeout is zero, bounds the
// whole run. Execution Memory is cleared at the start of every run.
func (e *Engine) Run(ctx context.Context, task string, opts RunOptions) (*RunResult, error) {
	start := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.config.ExecutionTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := e.tracer.Start(ctx, "flow.run."+e.def.Flow)
	defer span.End()

	for _, n := range e.nodes {
		n.reset()
	}
	e.Memory.Clear("")

	sharedCtx := action.NewContext(task)

	var frontier []string
	if opts.EntryPoint != "" {
		if _, ok := e.nodes[opts.EntryPoint]; ok {
			frontier = []string{opts.EntryPoint}
		}
	} else {
		frontier = e.graph.EntryNodes()
	}
	for _, id := range frontier {
		_ = e.nodes[id].Machine.Fire(fsm.EventSchedule)
	}

	iterationCap := e.config.IterationCap
	if iterationCap <= 0 {
		iterationCap = 100
	}

	for iter := 0; len(frontier) > 0; iter++ {
		if iter >= iterationCap {
			return e.buildResult(start, sharedCtx, flowerrors.NewRunError(
				flowerrors.ErrCodeIterationCap, "flow exceeded iteration cap without reaching completion", nil)), nil
		}

		select {
		case <-ctx.Done():
			return e.buildResult(start, sharedCtx, flowerrors.NewRunError(flowerrors.ErrCodeTimeout, "flow run timed out", ctx.Err())), nil
		default:
		}

		e.dispatchWave(ctx, frontier, task, sharedCtx, opts.OnAgentComplete)
		frontier = e.nextFrontier(frontier)
	}

	return e.buildResult(start, sharedCtx, nil), nil
}

// dispatchWave runs every node in wave concurrently, bounded by the
// engine's MaxParallelTasks semaphore (spec §5 resource model).
func (e *Engine) dispatchWave(ctx context.Context, wave []string, task string, sharedCtx *action.Context, onComplete func(string, any, error)) {
	maxParallel := e.config.MaxParallelTasks
	if maxParallel <= 0 || maxParallel > len(wave) {
		maxParallel = len(wave)
	}
	if maxParallel == 0 {
		return
	}
	sem := make(chan struct{}, maxParallel)

	var wg sync.WaitGroup
	for _, id := range wave {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			e.runNode(ctx, id, task, sharedCtx, onComplete)
		}(id)
	}
	wg.Wait()
}

// runNode executes one node to a terminal FSM state, retrying with
// backoff until its retry budget is exhausted.
func (e *Engine) runNode(ctx context.Context, id, task string, sharedCtx *action.Context, onComplete func(string, any, error)) {
	node := e.nodes[id]
	log := telemetry.L()

	ctx, span := e.tracer.Start(ctx, "flow.node."+id)
	defer span.End()

	if err := node.Machine.Fire(fsm.EventStart); err != nil {
		log.Warn().Str("node", id).Err(err).Msg("unexpected fsm state at dispatch")
		return
	}
	node.StartedAt = time.Now()
	node.dispatched = true
	log.Debug().Str("node", id).Msg("node dispatched")

	policy := defaultBackoffPolicy()
	var result any
	var err error

	for {
		result, err = e.invokeNode(ctx, node, task, sharedCtx)
		if err == nil {
			_ = node.Machine.Fire(fsm.EventSucceed)
			break
		}
		if node.RetryCount >= node.Def.MaxRetries {
			_ = node.Machine.Fire(fsm.EventFail)
			break
		}
		_ = node.Machine.Fire(fsm.EventFail)
		node.RetryCount++
		delay := policy.delay(node.RetryCount)
		select {
		case <-ctx.Done():
			node.Err = ctx.Err()
			return
		case <-time.After(delay):
		}
		_ = node.Machine.Fire(fsm.EventRetry)
		_ = node.Machine.Fire(fsm.EventStart)
	}

	node.FinishedAt = time.Now()
	node.Result = result
	node.Err = err

	if node.Agent != nil {
		e.Memory.Add(node.Agent.Name(), id, task, result, nil)
	}

	if onComplete != nil {
		onComplete(id, result, err)
	}
}

// invokeNode builds the node's prompt, then runs pre-actions on that
// prompt, the node's agent (if any), and post-actions on the result, in
// that order. An error from any of the three fails the attempt, and
// runNode retries it within the node's retry budget.
func (e *Engine) invokeNode(ctx context.Context, node *RuntimeNode, task string, sharedCtx *action.Context) (any, error) {
	prompt := task
	if node.Agent != nil {
		prompt = e.buildPrompt(node, task)
	}
	node.Prompt = prompt

	for _, a := range node.PreActions {
		if err := a.Invoke(ctx, node.Def.ID, prompt, sharedCtx); err != nil {
			return nil, fmt.Errorf("pre_action: %w", err)
		}
	}

	var result any
	var err error
	if node.Agent != nil {
		result, err = node.Agent.Ask(ctx, prompt, sharedCtx.Snapshot())
	} else {
		result = task
	}
	if err != nil {
		return nil, err
	}

	for _, a := range node.PostActions {
		if err := a.Invoke(ctx, node.Def.ID, result, sharedCtx); err != nil {
			return result, fmt.Errorf("post_action: %w", err)
		}
	}
	return result, nil
}

// buildPrompt constructs an agent's prompt (spec §4.4 "Prompt construction"):
// the instruction of the transition that activated this node if it has one,
// else the node's own instruction, else the original task followed by each
// agent dependency's result under a "--- <agent> ---" delimiter. Dependencies
// without an agent (start/end anchors) add no context; a node with no agent
// dependencies gets the bare task.
func (e *Engine) buildPrompt(node *RuntimeNode, task string) string {
	if instr := e.activatingInstruction(node); instr != "" {
		return instr
	}
	if node.Def.Instruction != "" {
		return node.Def.Instruction
	}
	var agentDeps []*RuntimeNode
	for _, dep := range node.Dependencies {
		if depNode := e.nodes[dep]; depNode.Agent != nil {
			agentDeps = append(agentDeps, depNode)
		}
	}
	if len(agentDeps) == 0 {
		return task
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task)
	b.WriteString("\nContext from previous agents:")
	for _, depNode := range agentDeps {
		fmt.Fprintf(&b, "\n--- %s ---\n%s", depNode.Agent.Name(), e.truncate(fmt.Sprint(depNode.Result)))
	}
	return b.String()
}

// activatingInstruction returns the instruction of the highest-priority
// incoming edge that fired into node, given its sources' current terminal
// results (ties go to the edge declared first), or "" if none fired or
// that edge carries no instruction.
func (e *Engine) activatingInstruction(node *RuntimeNode) string {
	best, bestPriority, found := "", 0, false
	for _, in := range e.edgesByTo[node.Def.ID] {
		src, ok := e.nodes[in.From]
		if !ok {
			continue
		}
		if e.edgeFires(in, src) && (!found || in.Priority > bestPriority) {
			best, bestPriority, found = in.Instruction, in.Priority, true
		}
	}
	return best
}

// truncate clips s to the engine's configured TruncationLength runes (spec
// §3 metadata.truncation_length); a zero/negative length means unbounded.
func (e *Engine) truncate(s string) string {
	if e.config.TruncationLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= e.config.TruncationLength {
		return s
	}
	return string(runes[:e.config.TruncationLength])
}

// nextFrontier evaluates every successor of the just-finished wave and
// returns those whose dependencies are all terminal and for which at
// least one incoming edge fires (spec §4.4 transition processing).
func (e *Engine) nextFrontier(finishedWave []string) []string {
	candidateSet := make(map[string]struct{})
	for _, id := range finishedWave {
		for _, to := range e.successors[id] {
			candidateSet[to] = struct{}{}
		}
	}

	var next []string
	for id := range candidateSet {
		node := e.nodes[id]
		if node.dispatched {
			continue
		}
		if !e.dependenciesTerminal(id) {
			continue
		}
		if e.shouldActivate(id) {
			if err := node.Machine.Fire(fsm.EventSchedule); err == nil {
				next = append(next, id)
			}
		}
	}
	return next
}

func (e *Engine) dependenciesTerminal(id string) bool {
	for _, dep := range e.nodes[id].Dependencies {
		if !e.nodes[dep].isTerminal() {
			return false
		}
	}
	return true
}

// shouldActivate reports whether any incoming edge into id fires, given
// its sources' terminal results. An entry node (no incoming edges) and
// any non-conditional edge always fires; on_condition edges defer to the
// predicate evaluator.
func (e *Engine) shouldActivate(id string) bool {
	edges := e.edgesByTo[id]
	if len(edges) == 0 {
		return true
	}
	for _, in := range edges {
		src := e.nodes[in.From]
		if e.edgeFires(in, src) {
			return true
		}
	}
	return false
}

func (e *Engine) edgeFires(in incomingEdge, src *RuntimeNode) bool {
	switch in.Condition {
	case flow.ConditionAlways:
		return true
	case flow.ConditionOnSuccess:
		return src.Machine.State() == fsm.Completed
	case flow.ConditionOnError:
		return src.Machine.State() == fsm.Failed
	case flow.ConditionOnTimeout:
		return src.Err != nil && src.Machine.State() == fsm.Failed
	case flow.ConditionOnCondition:
		errStr := ""
		if src.Err != nil {
			errStr = src.Err.Error()
		}
		ok, _ := e.predicate.Evaluate(in.Predicate, src.Result, errStr, nil)
		return ok
	default:
		return false
	}
}

// buildResult aggregates every node's terminal state into a RunResult
// (spec §4.4 "RunResult"): output, raw responses, per-agent status, errors,
// and an execution log, plus an overall status summarizing the nodes that
// dispatched an agent this run (completed if all of them completed, failed
// if all of them failed, else partial).
func (e *Engine) buildResult(start time.Time, sharedCtx *action.Context, runErr error) *RunResult {
	nodes := make(map[string]NodeResult, len(e.nodes))
	agents := make([]AgentResult, 0, len(e.nodes))
	responses := make(map[string]any)
	errorsOut := make(map[string]string)
	log := make([]LogEntry, 0, len(e.nodes))

	agentDispatched, completedAgents, failedAgents := 0, 0, 0

	for id, n := range e.nodes {
		status := StatusPending
		switch n.Machine.State() {
		case fsm.Completed:
			status = StatusCompleted
		case fsm.Failed:
			status = StatusFailed
		}
		if n.Agent != nil && n.dispatched {
			agentDispatched++
			switch status {
			case StatusCompleted:
				completedAgents++
			case StatusFailed:
				failedAgents++
			}
		}
		errStr := ""
		if n.Err != nil {
			errStr = n.Err.Error()
		}

		var elapsed time.Duration
		if !n.StartedAt.IsZero() && !n.FinishedAt.IsZero() {
			elapsed = n.FinishedAt.Sub(n.StartedAt)
		}

		nodes[id] = NodeResult{
			ID:         id,
			Status:     status,
			Result:     n.Result,
			Error:      errStr,
			RetryCount: n.RetryCount,
			StartedAt:  n.StartedAt,
			FinishedAt: n.FinishedAt,
		}

		name := id
		if n.Agent != nil {
			name = n.Agent.Name()
		}
		agents = append(agents, AgentResult{
			ID:            id,
			Name:          name,
			Status:        status,
			ExecutionTime: elapsed,
			Error:         errStr,
		})

		if n.Agent != nil {
			responses[id] = n.Result
		}
		if errStr != "" {
			errorsOut[id] = errStr
		}

		if n.dispatched {
			log = append(log, LogEntry{
				NodeID:        id,
				InputExcerpt:  e.truncate(n.Prompt),
				OutputExcerpt: e.truncate(fmt.Sprint(n.Result)),
				Elapsed:       elapsed,
				State:         status,
				RetryCount:    n.RetryCount,
				Success:       status == StatusCompleted,
			})
		}
	}

	// Status summarizes the nodes that actually ran an agent this run
	// (spec §4.4): completed if every one of them completed, failed if
	// every one of them failed, else partial. Structural start/end nodes
	// and nodes an on_condition edge never activated don't count — they
	// carry no agent outcome to summarize.
	status := StatusPartial
	switch {
	case agentDispatched == 0:
		status = StatusCompleted
	case completedAgents == agentDispatched:
		status = StatusCompleted
	case failedAgents == agentDispatched:
		status = StatusFailed
	}

	var lastSeen, leafOutput any
	var lastSeenTime, leafTime time.Time
	for id, n := range e.nodes {
		if n.Machine.State() != fsm.Completed {
			continue
		}
		if n.FinishedAt.After(lastSeenTime) {
			lastSeen, lastSeenTime = n.Result, n.FinishedAt
		}
		if len(e.successors[id]) == 0 && n.FinishedAt.After(leafTime) {
			leafOutput, leafTime = n.Result, n.FinishedAt
		}
	}
	output := lastSeen
	if !leafTime.IsZero() {
		output = leafOutput
	}

	return &RunResult{
		FlowName:     e.def.Flow,
		Output:       output,
		Responses:    responses,
		Agents:       agents,
		Errors:       errorsOut,
		ExecutionLog: log,
		Status:       status,
		TotalTime:    time.Since(start),
		Nodes:        nodes,
		Context:      sharedCtx.Snapshot(),
		Err:          runErr,
	}
}
