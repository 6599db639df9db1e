package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/variation"
)

// SweeperConfig holds idle session sweeping configuration
type SweeperConfig struct {
	// MaxIdle is how long a session may go unsaved before it is purged.
	// Zero or negative disables sweeping.
	MaxIdle  time.Duration
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		MaxIdle:  7 * 24 * time.Hour,
		Interval: time.Hour,
		Timeout:  time.Minute,
	}
}

// SessionSweeper periodically removes editing sessions that were abandoned
// without a submit or discard.
type SessionSweeper struct {
	config SweeperConfig
	purger variation.IdleSessionPurger
	logger *zap.Logger
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSessionSweeper creates a sweeper over purger
func NewSessionSweeper(config SweeperConfig, purger variation.IdleSessionPurger, logger *zap.Logger) *SessionSweeper {
	defaults := DefaultSweeperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeper{
		config: config,
		purger: purger,
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether the sweeper has anything to do
func (s *SessionSweeper) Enabled() bool {
	return s.config.MaxIdle > 0 && s.purger != nil
}

// Start launches the sweep loop. It is a no-op when disabled or already running.
func (s *SessionSweeper) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Info("Session sweeper disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Session sweeper started",
		zap.Duration("max_idle", s.config.MaxIdle),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight sweep, bounded by ctx
func (s *SessionSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Session sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Session sweeper stop timed out")
		return ctx.Err()
	}
}

// RunOnce purges sessions idle for longer than MaxIdle and returns the
// product ids whose sessions were removed.
func (s *SessionSweeper) RunOnce(ctx context.Context) ([]int64, error) {
	if !s.Enabled() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	cutoff := s.now().Add(-s.config.MaxIdle)
	removed, err := s.purger.DeleteIdleBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Session sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("Purged idle sessions",
			zap.Int("count", len(removed)),
			zap.Int64s("product_ids", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}

func (s *SessionSweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}
