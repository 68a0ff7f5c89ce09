// Package scheduler runs periodic maintenance jobs for the service.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/kindledeck/internal/cachestore"
)

// CachePruneScheduler periodically evicts stale definitions from the
// persistent cache.
type CachePruneScheduler struct {
	store     *cachestore.Store
	schedule  string
	retention time.Duration

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewCachePruneScheduler(store *cachestore.Store, schedule string, retention time.Duration) *CachePruneScheduler {
	return &CachePruneScheduler{
		store:     store,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the prune job. A nil store disables the scheduler.
func (s *CachePruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.store == nil {
		log.Printf("[SCHEDULER] Cache pruning disabled: no persistent cache configured")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runPrune); err != nil {
		return fmt.Errorf("schedule cache prune job with '%s': %w", s.schedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SCHEDULER] Cache pruning scheduled '%s', retention %s", s.schedule, s.retention)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *CachePruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[SCHEDULER] Cache pruning stopped")
}

func (s *CachePruneScheduler) runPrune() {
	removed, err := s.store.Prune(s.retention)
	if err != nil {
		log.Printf("[SCHEDULER] Cache prune failed: %v", err)
		return
	}
	log.Printf("[SCHEDULER] Cache prune removed %d stale definitions", removed)
}
