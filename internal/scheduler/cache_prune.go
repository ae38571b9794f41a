package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/tasks"
)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// CachePruneScheduler enqueues a prune_cache task on a cron schedule.
type CachePruneScheduler struct {
	queue    Enqueuer
	schedule string
	log      *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCachePruneScheduler creates a scheduler for the given cron schedule. An
// empty schedule leaves it disabled.
func NewCachePruneScheduler(queue Enqueuer, schedule string, log *zap.Logger) *CachePruneScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachePruneScheduler{
		queue:    queue,
		schedule: schedule,
		log:      log,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts cron. Cancelling ctx stops the scheduler.
func (s *CachePruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.log.Info("cache prune scheduler disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(); err != nil {
			s.log.Error("scheduled cache prune failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cache prune: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.schedule, time.Now())
	s.log.Info("cache prune scheduler started",
		zap.String("schedule", s.schedule),
		zap.String("description", Describe(s.schedule)),
		zap.Time("next_run", next))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops cron.
func (s *CachePruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	<-done.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.log.Info("cache prune scheduler stopped")
}

// RunNow enqueues a prune immediately and returns the task id.
func (s *CachePruneScheduler) RunNow() (string, error) {
	id, err := s.queue.Enqueue(tasks.PruneCacheTask{})
	if err != nil {
		return "", err
	}
	s.log.Info("cache prune enqueued", zap.String("task_id", id))
	return id, nil
}

// IsRunning reports whether cron is active.
func (s *CachePruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next scheduled activation, or nil when stopped.
func (s *CachePruneScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}
