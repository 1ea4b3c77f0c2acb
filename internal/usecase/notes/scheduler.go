package notes

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
)

// Runner is the part of Scanner the scheduler needs
type Runner interface {
	Run(ctx context.Context, trigger Trigger) (*ScanResult, error)
}

// Scheduler runs the notes scan on a fixed interval inside the API process
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler
func NewScheduler(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the loop. A non-positive interval disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Notes scan scheduler disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("🚀 Notes scan scheduler started", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Notes scan scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.runner.Run(ctx, TriggerScheduled)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrScanInProgress):
		s.logger.Info("Scheduled scan skipped: a scan is already running")
	default:
		s.logger.Error("Scheduled notes scan failed", zap.Error(err))
	}
}
