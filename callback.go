package flowengine

// OnAgentComplete is fired once per node as it reaches a terminal FSM
// state (completed or failed), result/err carrying whatever the node's
// last attempt produced. Set it via RunOptions.OnAgentComplete to observe
// a run as it progresses rather than only inspecting the final RunResult.
type OnAgentComplete = func(nodeID string, result any, err error)
