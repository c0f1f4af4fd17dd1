package state

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) (*State, chan func(*State) error) {
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(context.Canceled) })
	dispatch := make(chan func(*State) error, 16)
	return &State{
		Env: &Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			Log:             slog.Default(),
		},
	}, dispatch
}

func TestDispatchRunsOnMainThread(t *testing.T) {
	s, dispatch := testEnv(t)
	done := make(chan struct{})
	s.Env.Dispatch(func(s *State) error {
		close(done)
		return nil
	})
	fun := <-dispatch
	require.NoError(t, fun(s))
	<-done
}

func TestDispatchWait(t *testing.T) {
	s, dispatch := testEnv(t)
	go func() {
		for fun := range dispatch {
			_ = fun(s)
		}
	}()
	res, err := s.Env.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestDispatchWaitCancelled(t *testing.T) {
	s, _ := testEnv(t)
	s.Cancel(context.Canceled)
	_, err := s.Env.DispatchWait(func(s *State) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestRepeatTaskStopsOnCancel(t *testing.T) {
	s, dispatch := testEnv(t)
	var hits atomic.Int32
	stop := make(chan struct{})
	go func() {
		for fun := range dispatch {
			_ = fun(s)
		}
	}()
	s.Env.RepeatTask(func(s *State) error {
		if hits.Add(1) == 3 {
			close(stop)
		}
		return nil
	}, time.Millisecond)
	<-stop
	s.Cancel(context.Canceled)
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}
