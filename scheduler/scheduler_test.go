package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/experfolio/foliosearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	summary core.BatchSummary
}

func (r *stubRunner) Run(ctx context.Context) core.BatchSummary {
	r.calls.Add(1)
	if r.started != nil {
		close(r.started)
	}
	if r.release != nil {
		<-r.release
	}
	return r.summary
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(nil, DefaultSpec)
	assert.ErrorIs(t, err, ErrRunnerRequired)
}

func TestNew_RejectsInvalidSpec(t *testing.T) {
	_, err := New(&stubRunner{}, "not a cron spec")
	assert.Error(t, err)
}

func TestTriggerNow_RunsAndRecordsSummary(t *testing.T) {
	runner := &stubRunner{summary: core.BatchSummary{
		RunId: "run-1", Total: 4, Success: 3, Failed: 1, Elapsed: "2s",
	}}
	s, err := New(runner, DefaultSpec)
	require.NoError(t, err)

	summary, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunId)
	assert.Equal(t, int32(1), runner.calls.Load())

	status := s.Status()
	assert.False(t, status.Running)
	assert.False(t, status.LastRun.IsZero())
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, 4, status.LastSummary.Total)
}

func TestTriggerNow_SingleFlight(t *testing.T) {
	runner := &stubRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, err := New(runner, DefaultSpec)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.TriggerNow(context.Background())
		assert.NoError(t, err)
	}()

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("first run never started")
	}

	assert.True(t, s.Status().Running)

	_, err = s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(runner.release)
	<-done

	assert.False(t, s.Status().Running)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestStatus_NextRunSetAfterStart(t *testing.T) {
	runner := &stubRunner{}
	s, err := New(runner, DefaultSpec)
	require.NoError(t, err)

	assert.True(t, s.Status().NextRun.IsZero())

	s.Start()
	defer s.Stop()

	assert.False(t, s.Status().NextRun.IsZero())
}
