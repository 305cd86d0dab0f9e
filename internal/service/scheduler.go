package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"wagate/internal/cache"
)

// MaintenanceStore is the slice of the database the scheduler prunes.
type MaintenanceStore interface {
	CleanupOldMessages(retentionDays int) error
}

// Scheduler runs the periodic housekeeping loop: sweep expired cache
// entries and prune old message rows.
type Scheduler struct {
	dedup         *cache.DedupCache
	recent        *cache.RecentMessageCache
	store         MaintenanceStore
	interval      time.Duration
	retentionDays int
	logger        *logrus.Logger
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewScheduler(dedup *cache.DedupCache, recent *cache.RecentMessageCache, store MaintenanceStore, interval time.Duration, retentionDays int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		dedup:         dedup,
		recent:        recent,
		store:         store,
		interval:      interval,
		retentionDays: retentionDays,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Retention pruning is far coarser than cache sweeping; run it roughly
	// once a day's worth of ticks apart, and once at startup.
	s.pruneMessages()
	lastPrune := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := s.dedup.Sweep() + s.recent.Sweep()
			if swept > 0 {
				s.logger.WithField("entries", swept).Debug("Swept expired cache entries")
			}
			if time.Since(lastPrune) >= 24*time.Hour {
				s.pruneMessages()
				lastPrune = time.Now()
			}
		}
	}
}

func (s *Scheduler) pruneMessages() {
	if s.retentionDays <= 0 {
		return
	}
	if err := s.store.CleanupOldMessages(s.retentionDays); err != nil {
		s.logger.WithError(err).Warn("Failed to prune old messages")
	}
}
