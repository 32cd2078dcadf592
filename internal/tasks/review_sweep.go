package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// ReviewSweeper periodically removes reviews whose book has been deleted.
// Book deletion never cascades, so orphaned rows accumulate until a sweep
// reclaims them.
type ReviewSweeper struct {
	store  storage.Store
	config config.ReviewSweep

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewReviewSweeper creates a sweeper. It does nothing until Start is
// called, and Start is a no-op when sweeping is disabled or the backend
// has no review support.
func NewReviewSweeper(store storage.Store, cfg config.ReviewSweep) *ReviewSweeper {
	return &ReviewSweeper{
		store:  store,
		config: cfg,
		cron:   cron.New(),
	}
}

// Start schedules the sweep job.
func (s *ReviewSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		logrus.Debug("review sweeper: disabled")
		return nil
	}
	if !s.store.Capabilities().Reviews {
		logrus.Info("review sweeper: backend has no review support, skipping")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logrus.WithError(err).Error("review sweeper: sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.isRunning = true
	logrus.WithField("schedule", s.config.Schedule).Info("review sweeper: started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *ReviewSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	logrus.Info("review sweeper: stopped")
}

// RunOnce performs a single sweep and reports how many reviews went away.
// Safe to call directly, for the one-shot CLI command.
func (s *ReviewSweeper) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteOrphanReviews(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Info("review sweeper: reclaimed orphaned reviews")
	}
	return removed, nil
}
