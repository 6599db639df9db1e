package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, cutoff)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

// countingPurger counts sweeps for the ticker tests
type countingPurger struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPurger) DeleteIdleBefore(context.Context, time.Time) ([]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil, nil
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestNewSessionSweeper_Defaults(t *testing.T) {
	s := NewSessionSweeper(SweeperConfig{MaxIdle: time.Hour}, &countingPurger{}, nil)
	assert.Equal(t, time.Hour, s.config.Interval)
	assert.Equal(t, time.Minute, s.config.Timeout)
	assert.True(t, s.Enabled())

	assert.False(t, NewSessionSweeper(SweeperConfig{MaxIdle: -1}, &countingPurger{}, nil).Enabled())
	assert.False(t, NewSessionSweeper(SweeperConfig{MaxIdle: time.Hour}, nil, nil).Enabled())
}

func TestSessionSweeper_RunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("purges before now minus max idle", func(t *testing.T) {
		purger := new(MockPurger)
		purger.On("DeleteIdleBefore", mock.Anything, now.Add(-24*time.Hour)).
			Return([]int64{3, 9}, nil).Once()

		core, logs := observer.New(zap.InfoLevel)
		s := NewSessionSweeper(SweeperConfig{MaxIdle: 24 * time.Hour}, purger, zap.New(core))
		s.now = func() time.Time { return now }

		removed, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 9}, removed)
		assert.Equal(t, 1, logs.FilterMessage("Purged idle sessions").Len())
		purger.AssertExpectations(t)
	})

	t.Run("store errors are returned and logged", func(t *testing.T) {
		purger := new(MockPurger)
		purger.On("DeleteIdleBefore", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))

		core, logs := observer.New(zap.ErrorLevel)
		s := NewSessionSweeper(SweeperConfig{MaxIdle: time.Hour}, purger, zap.New(core))

		_, err := s.RunOnce(context.Background())
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, 1, logs.FilterMessage("Session sweep failed").Len())
	})

	t.Run("disabled sweeper never touches the store", func(t *testing.T) {
		purger := new(MockPurger)
		s := NewSessionSweeper(SweeperConfig{MaxIdle: 0}, purger, nil)

		removed, err := s.RunOnce(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, removed)
		purger.AssertNotCalled(t, "DeleteIdleBefore", mock.Anything, mock.Anything)
	})
}

func TestSessionSweeper_StartStop(t *testing.T) {
	purger := &countingPurger{}
	s := NewSessionSweeper(SweeperConfig{MaxIdle: time.Hour, Interval: 5 * time.Millisecond}, purger, nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")

	assert.Eventually(t, func() bool { return purger.count() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx), "stopping twice is a no-op")

	stopped := purger.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, purger.count())
}

func TestSessionSweeper_StartDisabled(t *testing.T) {
	s := NewSessionSweeper(SweeperConfig{MaxIdle: -time.Second}, &countingPurger{}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.isRunning)
	assert.NoError(t, s.Stop(context.Background()))
}
