package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPruner struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockPruner) Prune(ctx context.Context, maxAge time.Duration, maxCount int) (int, error) {
	m.calls.Add(1)
	args := m.Called(ctx, maxAge, maxCount)
	return args.Int(0), args.Error(1)
}

func TestRunOnce(t *testing.T) {
	pruner := new(MockPruner)
	pruner.On("Prune", mock.Anything, 24*time.Hour, 100).Return(3, nil).Once()
	pruner.On("Prune", mock.Anything, 24*time.Hour, 100).Return(0, errors.New("disk full")).Once()

	job := NewRetentionJob(pruner, time.Hour, 24*time.Hour, 100, nil)

	assert.Equal(t, 3, job.RunOnce(context.Background()))
	assert.Equal(t, 0, job.RunOnce(context.Background()))
	pruner.AssertExpectations(t)
}

func TestRunOnce_DisabledLimits(t *testing.T) {
	pruner := new(MockPruner)
	job := NewRetentionJob(pruner, 0, 0, 0, nil)

	assert.Equal(t, time.Hour, job.interval)
	assert.Zero(t, job.RunOnce(context.Background()))
	pruner.AssertNotCalled(t, "Prune", mock.Anything, mock.Anything, mock.Anything)
}

func TestStart_StopsOnStopAndContext(t *testing.T) {
	pruner := new(MockPruner)
	pruner.On("Prune", mock.Anything, time.Minute, 10).Return(0, nil)

	job := NewRetentionJob(pruner, 5*time.Millisecond, time.Minute, 10, nil)
	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}

	ctx, cancel := context.WithCancel(context.Background())
	job = NewRetentionJob(pruner, time.Hour, time.Minute, 10, nil)
	finished := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("job ignored context cancellation")
	}
}
