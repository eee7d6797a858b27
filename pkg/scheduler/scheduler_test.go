package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := New(nil)
	err := s.AddJob("every tuesday", JobFunc{JobName: "bad", Fn: func(context.Context) error { return nil }})
	assert.ErrorContains(t, err, "schedule bad")
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.AddJob("@every 1s", JobFunc{JobName: "tick", Fn: func(context.Context) error {
		runs.Add(1)
		return errors.New("failures are logged, not fatal")
	}}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestRunNowAndStopCancelsContext(t *testing.T) {
	s := New(nil)
	var seen context.Context
	job := JobFunc{JobName: "once", Fn: func(ctx context.Context) error {
		seen = ctx
		return nil
	}}
	require.NoError(t, s.RunNow(job))
	require.NoError(t, s.Stop(context.Background()))
	assert.Error(t, seen.Err())
}
