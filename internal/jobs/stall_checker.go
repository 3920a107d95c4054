package jobs

import (
	"context"
	"log"
	"time"

	"briefbase/internal/models"
	"briefbase/internal/services"
)

// StallChecker flags processing runs that have been running longer than the
// stall threshold, usually after a crashed worker. Flagged runs surface in
// status polling; recovery (reprocess) stays a human decision.
type StallChecker struct {
	runs      *services.RunStore
	activity  *services.ActivityService
	metrics   *services.Metrics
	threshold time.Duration
	interval  time.Duration
	lastRun   time.Time
}

// NewStallChecker creates a new stall checker job
func NewStallChecker(runs *services.RunStore, activity *services.ActivityService, metrics *services.Metrics, threshold, interval time.Duration) *StallChecker {
	return &StallChecker{
		runs:      runs,
		activity:  activity,
		metrics:   metrics,
		threshold: threshold,
		interval:  interval,
	}
}

// Run flags runs that exceeded the stall threshold
func (c *StallChecker) Run(ctx context.Context) error {
	c.lastRun = time.Now()

	stalled, err := c.runs.ListStalled(ctx, time.Now().Add(-c.threshold))
	if err != nil {
		return err
	}
	if len(stalled) == 0 {
		return nil
	}

	log.Printf("⚠️ [STALL-JOB] Found %d stalled run(s)", len(stalled))

	for _, run := range stalled {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.runs.MarkStalled(ctx, run.ID); err != nil {
			log.Printf("❌ [STALL-JOB] Failed to flag run %s: %v", run.ID.Hex(), err)
			continue
		}

		docID := run.SourceDocumentID
		c.activity.Record(models.ActivityEntry{
			ProjectID:        run.ProjectID,
			Action:           models.ActionRunStalled,
			SourceDocumentID: &docID,
			Metadata: map[string]interface{}{
				"runId":     run.ID.Hex(),
				"startedAt": run.StartedAt,
			},
		})
		if c.metrics != nil {
			c.metrics.RecordRunStalled()
		}

		log.Printf("⚠️ [STALL-JOB] Flagged run %s (document %s) as stalled",
			run.ID.Hex(), run.SourceDocumentID.Hex())
	}

	return nil
}

// GetNextRunTime returns when the next stall sweep should run
func (c *StallChecker) GetNextRunTime() time.Time {
	if c.lastRun.IsZero() {
		// First sweep shortly after startup to catch runs orphaned by a crash
		return time.Now().Add(1 * time.Minute)
	}
	return c.lastRun.Add(c.interval)
}
