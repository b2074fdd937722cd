// Package flowerrors defines the error taxonomy used across the flow
// execution engine: definition errors (fatal at load time), materialisation
// errors (fatal when wiring a definition to agents), and run errors (fatal
// to a single run). All wrap an underlying cause and carry a stable code.
package flowerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure independent of its message.
type Code string

const (
	ErrCodeInvalidJSON         Code = "invalid_json"
	ErrCodeUnknownNodeRef      Code = "unknown_node_ref"
	ErrCodeMissingAgentRef     Code = "missing_agent_ref"
	ErrCodeEmptyPredicate      Code = "empty_predicate"
	ErrCodeUnknownNodeType     Code = "unknown_node_type"
	ErrCodeDuplicateNodeID     Code = "duplicate_node_id"
	ErrCodeInvalidMetadata     Code = "invalid_metadata"
	ErrCodeAgentNotFound       Code = "agent_not_found"
	ErrCodeInvalidPredicate    Code = "invalid_predicate"
	ErrCodeTimeout             Code = "timeout"
	ErrCodeIterationCap        Code = "iteration_cap_exceeded"
	ErrCodeUnknownActionType   Code = "unknown_action_type"
	ErrCodeValidationFailed    Code = "validation_failed"
	ErrCodeInvalidState        Code = "invalid_state"
	ErrCodeNotFound            Code = "not_found"
)

// DefinitionError is raised while loading/validating a Flow Definition.
// It is always fatal: the definition is rejected wholesale.
type DefinitionError struct {
	Code    Code
	Message string
	Err     error
}

func NewDefinitionError(code Code, message string, err error) *DefinitionError {
	return &DefinitionError{Code: code, Message: message, Err: err}
}

func (e *DefinitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("definition error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("definition error [%s]: %s", e.Code, e.Message)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// MaterializationError is raised turning a Flow Definition into a runnable
// engine: an agent reference could not be resolved, or a predicate failed
// to compile.
type MaterializationError struct {
	Code    Code
	Message string
	Err     error
}

func NewMaterializationError(code Code, message string, err error) *MaterializationError {
	return &MaterializationError{Code: code, Message: message, Err: err}
}

func (e *MaterializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("materialization error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("materialization error [%s]: %s", e.Code, e.Message)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// RunError is fatal to a single `run` invocation, not to the engine or
// definition: Timeout and IterationCapExceeded are the only two kinds.
type RunError struct {
	Code    Code
	Message string
	Err     error
}

func NewRunError(code Code, message string, err error) *RunError {
	return &RunError{Code: code, Message: message, Err: err}
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("run error [%s]: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error { return e.Err }

// IsCode reports whether err (or a cause in its chain) carries the given
// code, across any of the three error kinds above.
func IsCode(err error, code Code) bool {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de.Code == code
	}
	var me *MaterializationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
