package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// RatingReconciler recomputes every book's stored rating aggregate from its
// review rows and reports how many had drifted.
type RatingReconciler interface {
	ReconcileAllAggregates() (int64, error)
}

// ReconcileRatingsTask recomputes the denormalized average_rating and
// total_reviews columns for all books. Normal operation keeps them in sync
// transactionally; this repairs any drift left by crashes or manual edits.
type ReconcileRatingsTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for rating reconciliation tasks.
func (t ReconcileRatingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_ratings",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileRatingsProcessor creates a processor function for ReconcileRatingsTask.
func ReconcileRatingsProcessor(reconciler RatingReconciler) backlite.QueueProcessor[ReconcileRatingsTask] {
	return func(ctx context.Context, task ReconcileRatingsTask) error {
		if reconciler == nil {
			return fmt.Errorf("rating reconciler not configured")
		}

		drifted, err := reconciler.ReconcileAllAggregates()
		if err != nil {
			return fmt.Errorf("reconcile ratings: %w", err)
		}

		if drifted > 0 {
			log.Printf("[TASK] Repaired rating aggregates for %d books (reason: %s)", drifted, task.Reason)
		} else {
			log.Printf("[TASK] Rating aggregates verified, no drift found (reason: %s)", task.Reason)
		}
		return nil
	}
}

// NewReconcileRatingsQueue creates a backlite queue for rating reconciliation.
func NewReconcileRatingsQueue(reconciler RatingReconciler) backlite.Queue {
	return backlite.NewQueue(ReconcileRatingsProcessor(reconciler))
}
