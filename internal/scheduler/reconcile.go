// Package scheduler runs recurring maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ReconcileScheduler periodically enqueues the rating reconciliation and
// activity cleanup tasks. The scheduler only enqueues; the task queue
// workers do the actual work, so a slow run never blocks the cron loop.
type ReconcileScheduler struct {
	taskClient *tasks.Client
	reconcile  config.Reconcile
	activity   config.Activity

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewReconcileScheduler creates a new scheduler instance.
func NewReconcileScheduler(taskClient *tasks.Client, reconcileCfg config.Reconcile, activityCfg config.Activity) *ReconcileScheduler {
	return &ReconcileScheduler{
		taskClient: taskClient,
		reconcile:  reconcileCfg,
		activity:   activityCfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if reconciliation is enabled.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.reconcile.Enabled {
		log.Printf("Reconcile scheduler: disabled")
		return nil
	}
	if s.taskClient == nil {
		log.Printf("Reconcile scheduler: task queue not available, skipping")
		return nil
	}

	schedule := s.reconcile.Schedule
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.runMaintenance()
	}); err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Reconcile scheduler: started with schedule '%s'", schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Reconcile scheduler: stopped")
}

// RunNow enqueues the maintenance tasks immediately.
func (s *ReconcileScheduler) RunNow() {
	go s.runMaintenance()
}

// IsRunning returns whether the scheduler is active.
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *ReconcileScheduler) runMaintenance() {
	if _, err := s.taskClient.Add(tasks.ReconcileRatingsTask{Reason: "scheduled"}).Save(); err != nil {
		log.Printf("Reconcile scheduler: failed to enqueue rating reconciliation: %v", err)
	}

	if _, err := s.taskClient.Add(tasks.CleanupActivityEventsTask{RetentionDays: s.activity.RetentionDays}).Save(); err != nil {
		log.Printf("Reconcile scheduler: failed to enqueue activity cleanup: %v", err)
	}
}
