package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHappyPath(t *testing.T) {
	m := New("n1")
	require.Equal(t, Idle, m.State())
	require.NoError(t, m.Fire(EventSchedule))
	require.Equal(t, Ready, m.State())
	require.NoError(t, m.Fire(EventStart))
	require.Equal(t, Running, m.State())
	require.NoError(t, m.Fire(EventSucceed))
	require.Equal(t, Completed, m.State())
	require.True(t, m.IsTerminal())
}

func TestFailThenRetry(t *testing.T) {
	m := New("n1")
	require.NoError(t, m.Fire(EventSchedule))
	require.NoError(t, m.Fire(EventStart))
	require.NoError(t, m.Fire(EventFail))
	require.Equal(t, Failed, m.State())
	require.NoError(t, m.Fire(EventRetry))
	require.Equal(t, Ready, m.State())
}

func TestBlockUnblock(t *testing.T) {
	m := New("n1")
	require.NoError(t, m.Fire(EventBlock))
	require.Equal(t, Blocked, m.State())
	require.NoError(t, m.Fire(EventUnblock))
	require.Equal(t, Ready, m.State())
}

func TestInvalidTransition(t *testing.T) {
	m := New("n1")
	err := m.Fire(EventSucceed)
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, Idle, m.State())
}

func TestFailFromIdleAndReady(t *testing.T) {
	m := New("n1")
	require.NoError(t, m.Fire(EventFail))
	require.Equal(t, Failed, m.State())

	m2 := New("n2")
	require.NoError(t, m2.Fire(EventSchedule))
	require.NoError(t, m2.Fire(EventFail))
	require.Equal(t, Failed, m2.State())
}

func TestReset(t *testing.T) {
	m := New("n1")
	require.NoError(t, m.Fire(EventSchedule))
	require.NoError(t, m.Fire(EventStart))
	require.NoError(t, m.Fire(EventSucceed))
	m.Reset()
	require.Equal(t, Idle, m.State())
}
