package predicate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_SimpleEquality(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(`result == "category_a"`, "category_a", "", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.Evaluate(`result == "category_a"`, "category_b", "", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluate_DotPathOnStruct(t *testing.T) {
	type decision struct {
		FinalDecision string  `json:"final_decision"`
		Confidence    float64 `json:"confidence"`
	}
	e := New()
	ok, err := e.Evaluate(`result.final_decision == "pizza"`, decision{FinalDecision: "pizza", Confidence: 0.95}, "", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluate_MissingFieldIsFailSafeFalse(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(`result.nonexistent == "x"`, map[string]any{"a": 1}, "", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluate_ContextAndError(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(`error != "" && ctx["retries"] > 1`, nil, "boom", map[string]any{"retries": 2})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompile_EmptyIsInvalid(t *testing.T) {
	e := New()
	err := e.Compile("")
	require.Error(t, err)
}

func TestCompile_SyntaxErrorIsInvalid(t *testing.T) {
	e := New()
	err := e.Compile("result ==")
	require.Error(t, err)
}

func TestEvaluate_InMembership(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(`result in ["a", "b", "c"]`, "b", "", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluate_NeverThrows(t *testing.T) {
	e := New()
	exprs := []string{
		`result / 0 == 1`,
		`result.a.b.c == "x"`,
		`result == nil`,
	}
	for _, expression := range exprs {
		require.NotPanics(t, func() {
			_, _ = e.Evaluate(expression, map[string]any{"a": 1}, "", nil)
		})
	}
}
