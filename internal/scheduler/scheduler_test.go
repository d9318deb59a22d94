package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noop(context.Context) error { return nil }

func counting(n *atomic.Int32) JobFunc {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func newStarted(t *testing.T) *Scheduler {
	t.Helper()
	s := New(zap.NewNop())
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func TestAddJob_ReplaceKeepsOneKey(t *testing.T) {
	s := newStarted(t)

	require.NoError(t, s.AddJob("a", noop, time.Hour, "first"))
	require.NoError(t, s.AddJob("a", noop, 2*time.Hour, "second"))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
	info, ok := s.Job("a")
	require.True(t, ok)
	assert.Equal(t, "second", info.Name)
	assert.Equal(t, 2*time.Hour, info.Interval)
}

func TestAddJob_Validation(t *testing.T) {
	s := newStarted(t)
	assert.Error(t, s.AddJob("a", nil, time.Second, ""))
	assert.Error(t, s.AddJob("a", noop, 0, ""))
	assert.False(t, s.HasJob("a"))
}

func TestRemoveJob(t *testing.T) {
	s := newStarted(t)
	require.NoError(t, s.AddJob("a", noop, time.Hour, ""))

	assert.True(t, s.RemoveJob("a"))
	assert.False(t, s.HasJob("a"))
	assert.False(t, s.RemoveJob("a"))
	assert.False(t, s.RemoveJob("missing"))
}

func TestRemoveJob_AfterStop(t *testing.T) {
	s := New(zap.NewNop())
	s.Start(context.Background())
	require.NoError(t, s.AddJob("a", noop, time.Hour, ""))

	s.Stop()
	assert.True(t, s.HasJob("a"))
	assert.False(t, s.RemoveJob("a"))
	assert.False(t, s.HasJob("a"))

	assert.ErrorIs(t, s.AddJob("b", noop, time.Hour, ""), ErrStopped)
}

func TestGetAllJobs_Sorted(t *testing.T) {
	s := newStarted(t)
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.AddJob(k, noop, time.Hour, ""))
	}
	assert.Equal(t, []string{"a", "b", "c"}, s.GetAllJobs())
}

func TestJobsAddedBeforeStartRunAfterStart(t *testing.T) {
	var n atomic.Int32
	s := New(zap.NewNop())
	require.NoError(t, s.AddJob("a", counting(&n), 10*time.Millisecond, ""))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())

	s.Start(context.Background())
	defer s.Stop()
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestFirstRunAfterOneInterval(t *testing.T) {
	var n atomic.Int32
	s := newStarted(t)
	require.NoError(t, s.AddJob("a", counting(&n), 200*time.Millisecond, ""))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestNoOverlap(t *testing.T) {
	var inFlight, peak, runs atomic.Int32
	fn := func(context.Context) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		runs.Add(1)
		return nil
	}

	s := newStarted(t)
	require.NoError(t, s.AddJob("slow", fn, 2*time.Millisecond, ""))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
}

func TestReplaceWhileRunning_NoOverlap(t *testing.T) {
	var inFlight, peak, runs atomic.Int32
	fn := func(context.Context) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(400 * time.Millisecond)
		inFlight.Add(-1)
		runs.Add(1)
		return nil
	}

	s := newStarted(t)
	require.NoError(t, s.AddJob("k", fn, 50*time.Millisecond, ""))
	require.Eventually(t, func() bool { return inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.AddJob("k", fn, 50*time.Millisecond, ""))

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
}

func TestErrorsAndPanicsKeepSchedule(t *testing.T) {
	var failing, panicking atomic.Int32
	s := newStarted(t)

	require.NoError(t, s.AddJob("err", func(context.Context) error {
		failing.Add(1)
		return errors.New("boom")
	}, 5*time.Millisecond, ""))
	require.NoError(t, s.AddJob("panic", func(context.Context) error {
		panicking.Add(1)
		panic("kaboom")
	}, 5*time.Millisecond, ""))

	assert.Eventually(t, func() bool {
		return failing.Load() >= 3 && panicking.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.HasJob("err"))
	assert.True(t, s.HasJob("panic"))
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	var ctxErr atomic.Value

	s := New(zap.NewNop())
	s.Start(context.Background())
	require.NoError(t, s.AddJob("a", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
			return nil
		}
		time.Sleep(50 * time.Millisecond)
		if ctx.Err() != nil {
			ctxErr.Store(ctx.Err())
		}
		finished.Store(true)
		return nil
	}, 5*time.Millisecond, ""))

	<-started
	s.Stop()
	assert.True(t, finished.Load())
	assert.Nil(t, ctxErr.Load())
}

func TestRemovedJobStopsRunning(t *testing.T) {
	var n atomic.Int32
	s := newStarted(t)
	require.NoError(t, s.AddJob("a", counting(&n), 5*time.Millisecond, ""))
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, 5*time.Millisecond)

	require.True(t, s.RemoveJob("a"))
	time.Sleep(20 * time.Millisecond)
	after := n.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}
