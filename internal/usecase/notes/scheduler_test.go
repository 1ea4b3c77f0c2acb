package notes

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(_ context.Context, trigger Trigger) (*ScanResult, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &ScanResult{Trigger: trigger}, nil
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 20*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	after := runner.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, runner.calls.Load(), "no runs after Stop")
}

func TestScheduler_SurvivesRunErrors(t *testing.T) {
	runner := &countingRunner{err: entities.ErrScanInProgress}
	s := NewScheduler(runner, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_Disabled(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 0, zap.NewNop())

	s.Start(context.Background())
	s.Stop()
	assert.Zero(t, runner.calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	require.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}
