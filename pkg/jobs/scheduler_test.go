package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSchedulerRegisterValidatesInput(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("purge", "@every 5m", noop))
	assert.Error(t, s.Register("purge", "@every 1m", noop))
	assert.Error(t, s.Register("broken", "not a schedule", noop))
	assert.Error(t, s.Register("", "@hourly", noop))
	assert.Error(t, s.Register("nil", "@hourly", nil))
	assert.Equal(t, []string{"purge"}, s.Names())
}

func TestSchedulerRunNowLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScheduler(SchedulerConfig{Logger: zap.New(core), Timeout: time.Second})

	require.NoError(t, s.Register("fails", "@hourly", func(context.Context) error { return errors.New("boom") }))
	require.NoError(t, s.Register("panics", "@hourly", func(context.Context) error { panic("oops") }))

	assert.EqualError(t, s.RunNow(context.Background(), "fails"), "boom")
	assert.ErrorContains(t, s.RunNow(context.Background(), "panics"), "panicked")
	assert.Error(t, s.RunNow(context.Background(), "missing"))
	assert.Equal(t, 2, logs.FilterMessage("job failed").Len())
}

func TestSchedulerRunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Timeout: 10 * time.Millisecond})
	require.NoError(t, s.Register("slow", "@hourly", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), context.DeadlineExceeded)
}

func TestSchedulerDispatchesOnSchedule(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	var runs int32
	require.NoError(t, s.Register("tick", "@every 1s", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	s.Start()
	s.Start()
	assert.False(t, s.Next("tick").IsZero())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}

func TestSchedulerRestartsWithLiveContext(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	var ok, cancelled int32
	require.NoError(t, s.Register("tick", "@every 1s", func(ctx context.Context) error {
		if ctx.Err() != nil {
			atomic.AddInt32(&cancelled, 1)
			return ctx.Err()
		}
		atomic.AddInt32(&ok, 1)
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Start()
	s.Stop(ctx)

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&ok) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop(ctx)
	assert.Zero(t, atomic.LoadInt32(&cancelled))
}
