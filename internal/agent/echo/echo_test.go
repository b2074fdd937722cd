package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsk_PlainEcho(t *testing.T) {
	a := New("echo", "")
	out, err := a.Ask(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestAsk_WrappedUnderKey(t *testing.T) {
	a := New("decider", "final_decision")
	out, err := a.Ask(context.Background(), "pizza", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"final_decision": "pizza"}, out)
}

func TestName(t *testing.T) {
	require.Equal(t, "echo", New("echo", "").Name())
}
