package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

func runAsync(ctx context.Context, s *Supervisor) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestRun_StartsEveryWorker(t *testing.T) {
	var mu sync.Mutex
	started := map[int]bool{}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(4, func(ctx context.Context, id int) error {
		mu.Lock()
		started[id] = true
		mu.Unlock()
		<-ctx.Done()
		return nil
	}, logging.Discard())

	done := runAsync(ctx, s)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 4
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	assert.Zero(t, s.Restarts())
}

func TestRun_ReplacesExitedWorker(t *testing.T) {
	var launches atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(1, func(ctx context.Context, id int) error {
		if launches.Add(1) <= 3 {
			return errors.New("crashed")
		}
		<-ctx.Done()
		return nil
	}, logging.Discard())
	s.restartDelay = time.Millisecond

	done := runAsync(ctx, s)

	require.Eventually(t, func() bool { return launches.Load() == 4 }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 3, s.Restarts())

	cancel()
	<-done
}

func TestRun_CleanExitIsAlsoReplaced(t *testing.T) {
	var launches atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(1, func(ctx context.Context, id int) error {
		if launches.Add(1) == 1 {
			return nil
		}
		<-ctx.Done()
		return nil
	}, logging.Discard())
	s.restartDelay = time.Millisecond

	done := runAsync(ctx, s)
	require.Eventually(t, func() bool { return launches.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.EqualValues(t, 1, s.Restarts())
}

func TestRun_NoRestartAfterCancel(t *testing.T) {
	var launches atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	s := New(2, func(ctx context.Context, id int) error {
		launches.Add(1)
		<-ctx.Done()
		return ctx.Err()
	}, logging.Discard())

	done := runAsync(ctx, s)
	require.Eventually(t, func() bool { return launches.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.EqualValues(t, 2, launches.Load())
	assert.Zero(t, s.Restarts())
}

func TestNew_AtLeastOneWorker(t *testing.T) {
	s := New(0, func(context.Context, int) error { return nil }, logging.Discard())
	assert.Equal(t, 1, s.workers)
}

func TestInProcess_RecoversPanic(t *testing.T) {
	launch := InProcess(func(ctx context.Context, id int) error {
		panic("boom")
	})

	err := launch(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker 7 panicked: boom")
}

func TestInProcess_PassesThroughError(t *testing.T) {
	want := errors.New("bind failed")
	launch := InProcess(func(ctx context.Context, id int) error { return want })

	assert.ErrorIs(t, launch(context.Background(), 1), want)
}
