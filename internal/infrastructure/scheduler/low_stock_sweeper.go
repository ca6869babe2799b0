package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LowStockChecker runs a low-stock sweep across the catalog and returns
// the number of products that raised a replenishment signal.
type LowStockChecker interface {
	SweepLowStock(ctx context.Context, now time.Time) (int, error)
}

// SweeperConfig holds configuration for the low-stock sweeper
type SweeperConfig struct {
	// Interval is how often the sweep runs
	Interval time.Duration
	// RunOnStart runs one sweep immediately when the sweeper starts
	RunOnStart bool
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:   time.Hour,
		RunOnStart: false,
	}
}

// LowStockSweeper periodically sweeps the catalog for products at or
// below their reorder point so replenishment signals fire without
// waiting for the next stock change.
type LowStockSweeper struct {
	config  SweeperConfig
	checker LowStockChecker
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewLowStockSweeper creates a new low-stock sweeper
func NewLowStockSweeper(config SweeperConfig, checker LowStockChecker, logger *zap.Logger) *LowStockSweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	return &LowStockSweeper{
		config:  config,
		checker: checker,
		logger:  logger,
	}
}

// Start starts the sweep loop
func (s *LowStockSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Low-stock sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)

	return nil
}

// Stop stops the sweep loop, waiting for an in-flight sweep to finish
func (s *LowStockSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Low-stock sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop runs sweeps on the configured interval
func (s *LowStockSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.sweep(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs a single sweep over the catalog
func (s *LowStockSweeper) sweep(ctx context.Context) {
	start := time.Now()

	signaled, err := s.checker.SweepLowStock(ctx, start)
	if err != nil {
		s.logger.Error("Low-stock sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("Low-stock sweep completed",
		zap.Int("signaled", signaled),
		zap.Duration("elapsed", time.Since(start)),
	)
}
