package periodic

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("returns task error", func(t *testing.T) {
		runner := NewRunner("test", func(context.Context) error { return errors.New("boom") }, nil)

		ran, err := runner.RunNow(ctx)

		assert.True(t, ran)
		assert.EqualError(t, err, "boom")
		assert.False(t, runner.InFlight())
	})

	t.Run("panic becomes error", func(t *testing.T) {
		runner := NewRunner("test", func(context.Context) error { panic("bad sync") }, nil)

		ran, err := runner.RunNow(ctx)

		assert.True(t, ran)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad sync")
		assert.False(t, runner.InFlight())
	})

	t.Run("overlapping run is skipped", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		var runs atomic.Int32
		runner := NewRunner("test", func(context.Context) error {
			runs.Add(1)
			close(started)
			<-release
			return nil
		}, nil)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = runner.RunNow(ctx)
		}()
		<-started

		ran, err := runner.RunNow(ctx)
		close(release)
		<-done

		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, int32(1), runs.Load())
	})
}

func TestRunner_Schedule(t *testing.T) {
	t.Run("ticks run the task until stopped", func(t *testing.T) {
		var runs atomic.Int32
		runner := NewRunner("test", func(context.Context) error {
			runs.Add(1)
			return nil
		}, nil)

		runner.Start(5 * time.Millisecond)
		assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
		runner.Stop()

		assert.False(t, runner.Scheduled())
		after := runs.Load()
		time.Sleep(30 * time.Millisecond)
		assert.LessOrEqual(t, runs.Load(), after+1)
	})

	t.Run("starting twice replaces the schedule", func(t *testing.T) {
		runner := NewRunner("test", func(context.Context) error { return nil }, nil)

		runner.Start(time.Hour)
		first := runner.stop
		runner.Start(time.Hour)
		defer runner.Stop()

		assert.True(t, runner.Scheduled())
		assert.NotEqual(t, first, runner.stop)
		select {
		case <-first:
		default:
			t.Fatal("previous schedule was not stopped")
		}
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		runner := NewRunner("test", func(context.Context) error { return nil }, nil)

		assert.NotPanics(t, runner.Stop)
		assert.False(t, runner.Scheduled())
	})
}

func TestRunner_Middleware(t *testing.T) {
	var seen []string
	trace := func(label string) Middleware {
		return func(name string, next Task) Task {
			return func(ctx context.Context) error {
				seen = append(seen, label+":"+name)
				return next(ctx)
			}
		}
	}
	runner := NewRunner("tag sync", func(context.Context) error { return nil }, nil, trace("inner"), trace("outer"))

	_, err := runner.RunNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"outer:tag sync", "inner:tag sync"}, seen)
}
