package engine

import "time"

// Status values a node/run ends in (spec §4.4).
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusPartial   = "partial" // run-level only: some agents completed, some didn't
)

// AgentResult is one node's outcome for one run (spec §4.4 RunResult.agents).
type AgentResult struct {
	ID            string
	Name          string
	Status        string // completed, failed, pending
	ExecutionTime time.Duration
	Error         string
}

// LogEntry is one agent's execution_log record (spec §4.4: "input excerpt,
// output excerpt, elapsed time, state, retry count, and success flag").
type LogEntry struct {
	NodeID        string
	InputExcerpt  string
	OutputExcerpt string
	Elapsed       time.Duration
	State         string
	RetryCount    int
	Success       bool
}

// NodeResult is the recorded outcome of one node for one run. Kept
// alongside AgentResult for callers that want the raw result value rather
// than just its presence in Responses/Output.
type NodeResult struct {
	ID         string
	Status     string
	Result     any
	Error      string
	RetryCount int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunResult aggregates a run's outcome (spec §4.4): the final output, every
// agent's raw response, per-agent status, errors, an execution log, and an
// overall status summarizing the agents that were dispatched this run.
type RunResult struct {
	FlowName     string
	Output       any
	Responses    map[string]any // agent (node) id -> raw response
	Agents       []AgentResult
	Errors       map[string]string // agent (node) id -> message
	ExecutionLog []LogEntry
	Status       string // completed, partial, failed
	TotalTime    time.Duration
	Metadata     map[string]any

	// Nodes mirrors Agents keyed by ID, and Context exposes the run's
	// shared_context snapshot, for callers that prefer direct lookup over
	// scanning Agents/Responses.
	Nodes   map[string]NodeResult
	Context map[string]any

	// Err carries a run-level fatal (Timeout, IterationCapExceeded) when
	// the run didn't reach ordinary completion; Status still summarizes
	// whatever agents did run.
	Err error
}
