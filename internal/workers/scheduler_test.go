package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubWorker counts executions and optionally fails or panics.
type stubWorker struct {
	*BaseWorker
	runs  atomic.Int64
	fail  error
	panic bool
}

func newStubWorker(name string, interval time.Duration) *stubWorker {
	return &stubWorker{
		BaseWorker: NewBaseWorker(name, interval, true),
	}
}

func (w *stubWorker) Run(ctx context.Context) error {
	w.runs.Add(1)
	if w.panic {
		panic("stub worker panic")
	}
	return w.fail
}

func TestScheduleRest(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)

	sched := Schedule{
		WakeUpOffset: 8 * time.Hour,
		WorkDuration: 10 * time.Hour,
	}

	// Before the window opens.
	assert.Equal(t, 2*time.Hour, sched.Rest(day.Add(6*time.Hour)))

	// Inside the window.
	assert.Equal(t, time.Duration(0), sched.Rest(day.Add(12*time.Hour)))
	assert.Equal(t, time.Duration(0), sched.Rest(day.Add(8*time.Hour)))

	// After the window closes, rest runs until tomorrow's opening.
	assert.Equal(t, 12*time.Hour, sched.Rest(day.Add(20*time.Hour)))
}

func TestScheduleRest_Unwindowed(t *testing.T) {
	sched := Schedule{WakeUpOffset: 8 * time.Hour}
	assert.False(t, sched.Windowed())
	assert.Equal(t, time.Duration(0), sched.Rest(time.Now()))
}

func TestSchedulerRunsWorkerImmediately(t *testing.T) {
	s := NewScheduler(Schedule{})
	w := newStubWorker("stub", time.Hour)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return w.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(1), w.Health().RunCount)
	assert.False(t, w.LastRun().IsZero())
}

func TestSchedulerSkipsDisabledWorker(t *testing.T) {
	s := NewScheduler(Schedule{})
	w := newStubWorker("disabled", time.Hour)
	w.SetEnabled(false)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), w.runs.Load())
}

func TestSchedulerRecordsErrors(t *testing.T) {
	s := NewScheduler(Schedule{})
	w := newStubWorker("failing", time.Hour)
	w.fail = assert.AnError
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return w.Health().ErrorCount == 1
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, w.Health().LastError, assert.AnError)
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	s := NewScheduler(Schedule{})
	w := newStubWorker("panicky", 20*time.Millisecond)
	w.panic = true
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// The loop survives the panic and keeps scheduling.
	require.Eventually(t, func() bool {
		return w.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerDoubleStart(t *testing.T) {
	s := NewScheduler(Schedule{})

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.Error(t, s.Stop())
}

func TestNewBaseWorkerClampsInterval(t *testing.T) {
	assert.Equal(t, time.Minute, NewBaseWorker("zero", 0, true).Interval())
	assert.Equal(t, time.Minute, NewBaseWorker("negative", -time.Second, true).Interval())
	assert.Equal(t, 5*time.Second, NewBaseWorker("valid", 5*time.Second, true).Interval())
}

// zeroIntervalWorker bypasses the BaseWorker clamp to hit the
// scheduler's own guard.
type zeroIntervalWorker struct {
	*stubWorker
}

func (zeroIntervalWorker) Interval() time.Duration { return 0 }

func TestSchedulerSurvivesZeroInterval(t *testing.T) {
	s := NewScheduler(Schedule{})
	w := zeroIntervalWorker{newStubWorker("raw", time.Hour)}
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return w.runs.Load() >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerPreWorkWait(t *testing.T) {
	s := NewScheduler(Schedule{PreWorkWait: 80 * time.Millisecond})
	w := newStubWorker("settling", time.Hour)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), w.runs.Load(), "worker must not run before the settle delay")

	require.Eventually(t, func() bool {
		return w.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)
}
