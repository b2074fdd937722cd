// Package predicate compiles and evaluates the safe, sandboxed boolean
// expressions used by conditional edges. Compilation is cached; evaluation
// is fail-safe — a malformed or partially-unsatisfiable expression returns
// false and is logged, never propagated, so a bad edge simply never fires.
package predicate

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flowerrors"
	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// Evaluator compiles expressions once and evaluates the activation
// {result, error, ctx} the spec requires for conditional edges.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
	log   zerolog.Logger
}

// New creates an Evaluator with its own compiled-program cache.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
		log:   *telemetry.L(),
	}
}

// Compile compiles expr once, caching the result. Returns InvalidPredicate
// on a syntax error.
func (e *Evaluator) Compile(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return flowerrors.NewMaterializationError(
			flowerrors.ErrCodeInvalidPredicate, "predicate expression is empty", nil)
	}
	_, err := e.program(expression)
	return err
}

func (e *Evaluator) program(expression string) (*vm.Program, error) {
	e.mu.RLock()
	p, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	envType := map[string]any{}
	p, err := expr.Compile(expression, expr.Env(envType), expr.AsBool())
	if err != nil {
		// Retry without an env hint: some expressions reference dynamic
		// map keys expr can't type-check statically.
		p, err = expr.Compile(expression, expr.AsBool())
		if err != nil {
			return nil, flowerrors.NewMaterializationError(
				flowerrors.ErrCodeInvalidPredicate,
				fmt.Sprintf("failed to compile predicate %q", expression),
				err,
			)
		}
	}

	e.mu.Lock()
	e.cache[expression] = p
	e.mu.Unlock()
	return p, nil
}

// Evaluate runs expression against the activation (result, errStr, ctx).
// It never returns an error for a runtime evaluation failure (type
// mismatch, missing field, division by zero) — those are fail-safe false.
// A compile error is the only case that propagates, since compilation is
// expected to have already succeeded at materialisation time.
func (e *Evaluator) Evaluate(expression string, result any, errStr string, ctx map[string]any) (bool, error) {
	program, err := e.program(expression)
	if err != nil {
		return false, err
	}

	env := activation(result, errStr, ctx)

	out, runErr := expr.Run(program, env)
	if runErr != nil {
		if isFailSafe(runErr) {
			e.log.Warn().Str("predicate", expression).Err(runErr).Msg("predicate evaluation failed, treating as false")
			return false, nil
		}
		e.log.Warn().Str("predicate", expression).Err(runErr).Msg("predicate evaluation error")
		return false, nil
	}

	b, ok := out.(bool)
	if !ok {
		e.log.Warn().Str("predicate", expression).Msg("predicate did not return a bool, treating as false")
		return false, nil
	}
	return b, nil
}

// Value compiles (uncached across calls with differing expressions, but
// still benefiting from the shared program cache) and runs expression,
// returning its raw result rather than coercing to bool. Used by actions
// that compute a derived value rather than route an edge.
func (e *Evaluator) Value(expression string, result any, errStr string, ctx map[string]any) (any, error) {
	e.mu.RLock()
	p, ok := e.cache["value:"+expression]
	e.mu.RUnlock()
	if !ok {
		compiled, err := expr.Compile(expression)
		if err != nil {
			return nil, flowerrors.NewMaterializationError(
				flowerrors.ErrCodeInvalidPredicate,
				fmt.Sprintf("failed to compile expression %q", expression),
				err,
			)
		}
		e.mu.Lock()
		e.cache["value:"+expression] = compiled
		e.mu.Unlock()
		p = compiled
	}

	out, err := expr.Run(p, activation(result, errStr, ctx))
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return out, nil
}

// activation builds the flat map expr evaluates against, applying the
// coercion rules from spec §4.1 to `result`.
func activation(result any, errStr string, ctx map[string]any) map[string]any {
	env := make(map[string]any, len(ctx)+3)
	for k, v := range ctx {
		env[k] = v
	}
	env["result"] = Coerce(result)
	env["error"] = errStr
	env["ctx"] = ctx
	return env
}

// Coerce applies the result coercion rules: a structured record with a
// dump-to-map capability becomes a map; a plain struct becomes a map of
// its exported fields; scalars and existing maps/slices pass through.
func Coerce(result any) any {
	if result == nil {
		return nil
	}

	switch v := result.(type) {
	case map[string]any:
		return v
	case interface{ ToMap() map[string]any }:
		return v.ToMap()
	}

	rv := reflect.ValueOf(result)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return result
	}

	m := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("json"); tag != "" {
			if parts := strings.Split(tag, ","); parts[0] != "" && parts[0] != "-" {
				name = parts[0]
			}
		}
		m[name] = rv.Field(i).Interface()
	}
	return m
}

func isFailSafe(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"cannot fetch", "undefined", "unknown name", "nil pointer", "not found", "cannot get"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
