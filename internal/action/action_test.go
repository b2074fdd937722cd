package action

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Make("bogus", nil)
	require.Error(t, err)
}

func TestLogAction(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("log", map[string]any{"level": "debug", "message": "hi"})
	require.NoError(t, err)
	require.NoError(t, a.Invoke(context.Background(), "n1", "payload", NewContext("t")))
}

func TestSetContextAction_Literal(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("set_context", map[string]any{"key": "k", "value": "v"})
	require.NoError(t, err)

	actx := NewContext("t")
	require.NoError(t, a.Invoke(context.Background(), "n1", nil, actx))
	v, ok := actx.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

type result struct {
	FinalDecision string `json:"final_decision"`
}

func TestSetContextAction_FromPayload(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("set_context", map[string]any{"key": "decision", "value_from": "final_decision"})
	require.NoError(t, err)

	actx := NewContext("t")
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, actx))
	v, ok := actx.Get("decision")
	require.True(t, ok)
	require.Equal(t, "pizza", v)
}

func TestSetContextAction_FromPayloadMissing(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("set_context", map[string]any{"key": "decision", "value_from": "nope"})
	require.NoError(t, err)

	actx := NewContext("t")
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, actx))
	v, ok := actx.Get("decision")
	require.True(t, ok)
	require.Nil(t, v)
}

func TestTransformAction(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("transform", map[string]any{
		"expression": "result.final_decision + \"!\"",
	})
	require.NoError(t, err)

	actx := NewContext("t")
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, actx))
	v, ok := actx.Get("_transformed_result")
	require.True(t, ok)
	require.Equal(t, "pizza!", v)
}

func TestValidateAction_Pass(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("validate", map[string]any{
		"schema": map[string]any{
			"type":     "object",
			"required": []any{"final_decision"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, NewContext("t")))
}

func TestValidateAction_FailHard(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("validate", map[string]any{
		"schema": map[string]any{
			"type":     "object",
			"required": []any{"missing_field"},
		},
	})
	require.NoError(t, err)
	require.Error(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, NewContext("t")))
}

func TestValidateAction_FailSoftLogsOnly(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("validate", map[string]any{
		"schema":     map[string]any{"type": "object", "required": []any{"missing_field"}},
		"on_failure": "skip",
	})
	require.NoError(t, err)
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, NewContext("t")))
}

func TestValidateAction_FailFallbackRecordsValue(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("validate", map[string]any{
		"schema":         map[string]any{"type": "object", "required": []any{"missing_field"}},
		"on_failure":     "fallback",
		"fallback_value": "default",
	})
	require.NoError(t, err)

	actx := NewContext("t")
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, actx))
	v, ok := actx.Get("n1_validation_fallback")
	require.True(t, ok)
	require.Equal(t, "default", v)
}

func TestWebhookAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry()
	a, err := r.Make("webhook", map[string]any{"url": srv.URL})
	require.NoError(t, err)
	require.NoError(t, a.Invoke(context.Background(), "n1", result{FinalDecision: "pizza"}, NewContext("t")))
}

func TestMetricAction(t *testing.T) {
	r := NewRegistry()
	a, err := r.Make("metric", map[string]any{"name": "latency", "value": 1.5, "tags": map[string]any{"env": "test"}})
	require.NoError(t, err)
	require.NoError(t, a.Invoke(context.Background(), "n1", nil, NewContext("t")))
}
