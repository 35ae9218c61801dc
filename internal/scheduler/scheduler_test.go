package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/sync-service/internal/scheduler"
)

func TestStartStop_TogglesRunning(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := scheduler.New(func(ctx context.Context) {}, func() {}, logger)

	assert.False(t, s.Running())
	require.NoError(t, s.Start(context.Background(), time.Second))
	assert.True(t, s.Running())

	s.Stop()
	assert.False(t, s.Running())
}

func TestStart_ReentrantIsNoOp(t *testing.T) {
	logger := zaptest.NewLogger(t)
	var pollCount atomic.Int32
	s := scheduler.New(func(ctx context.Context) { pollCount.Add(1) }, func() {}, logger)

	require.NoError(t, s.Start(context.Background(), time.Second))
	require.NoError(t, s.Start(context.Background(), time.Second)) // must be a no-op, not a second registration
	s.Stop()
}

func TestPollTicksFireAndSkipWhenOverlapping(t *testing.T) {
	logger := zaptest.NewLogger(t)

	release := make(chan struct{})
	var running atomic.Int32
	var maxConcurrent atomic.Int32

	s := scheduler.New(func(ctx context.Context) {
		n := running.Add(1)
		for {
			old := maxConcurrent.Load()
			if n <= old || maxConcurrent.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		running.Add(-1)
	}, func() {}, logger)

	require.NoError(t, s.Start(context.Background(), 10*time.Millisecond))
	time.Sleep(100 * time.Millisecond)
	close(release)
	s.Stop()

	assert.LessOrEqual(t, maxConcurrent.Load(), int32(1), "max_instances=1 must hold even under overlapping ticks")
}
