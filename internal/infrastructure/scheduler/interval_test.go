package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	s := NewIntervalScheduler(10 * time.Millisecond)

	var runs atomic.Int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no triggers after Stop")
}

func TestIntervalScheduler_StopsWithContext(t *testing.T) {
	s := NewIntervalScheduler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	require.NoError(t, s.Start(ctx, func(time.Time) { runs.Add(1) }))
	done := s.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler loop did not exit")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestIntervalScheduler_Validation(t *testing.T) {
	assert.NoError(t, NewIntervalScheduler(time.Second).Start(context.Background(), nil))
	assert.Error(t, NewIntervalScheduler(0).Start(context.Background(), func(time.Time) {}))
	assert.NoError(t, NewIntervalScheduler(time.Second).Stop(context.Background()), "stop before start")
}
