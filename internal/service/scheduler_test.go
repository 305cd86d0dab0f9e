package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"wagate/internal/cache"
)

func TestSchedulerSweepsAndPrunes(t *testing.T) {
	dedup := cache.NewDedupCache(time.Millisecond, 4)
	recent := cache.NewRecentMessageCache(10, time.Millisecond, 4)
	store := &mockMaintenanceStore{}
	store.On("CleanupOldMessages", 30).Return(nil)

	dedup.MarkSeen("msg-1")
	recent.Append("conv-1", "user", "hola")
	time.Sleep(5 * time.Millisecond)

	s := NewScheduler(dedup, recent, store, 20*time.Millisecond, 30, testLogger())
	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	// Startup prune plus at least one sweep tick.
	store.AssertCalled(t, "CleanupOldMessages", 30)
	if dedup.Len() != 0 {
		t.Fatalf("expected dedup cache to be swept, %d entries remain", dedup.Len())
	}
}

func TestSchedulerZeroRetentionSkipsPrune(t *testing.T) {
	store := &mockMaintenanceStore{}

	s := NewScheduler(cache.NewDedupCache(time.Minute, 4), cache.NewRecentMessageCache(10, time.Minute, 4), store, 20*time.Millisecond, 0, testLogger())
	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	store.AssertNotCalled(t, "CleanupOldMessages", mock.Anything)
}
