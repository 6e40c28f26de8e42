package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/metrics"
)

// BatchLockName is the run lock shared by imports and remediations; both write the same tables.
const BatchLockName = "batch"

// errDryRun rolls back a transaction whose work completed.
var errDryRun = errors.New("dry run")

// BatchError is a storage failure that aborted an import. Nothing from the batch was kept.
type BatchError struct {
	Row  int    `json:"row"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("import failed at row %d (%s): %v", e.Row, e.Code, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// RemediationError is a storage failure that aborted a remediation. Applied counts the
// actions that had succeeded before the failure; all of them were rolled back.
type RemediationError struct {
	Intended int    `json:"intended"`
	Applied  int    `json:"applied"`
	Action   string `json:"action"`
	Err      error  `json:"-"`
}

func (e *RemediationError) Error() string {
	return fmt.Sprintf("remediation failed after %d of %d actions (%s): %v", e.Applied, e.Intended, e.Action, e.Err)
}

func (e *RemediationError) Unwrap() error { return e.Err }

// runBatch holds the run lock while fn executes and records the batch metrics.
func runBatch(ctx context.Context, locker lock.Locker, log *logger.Logger, kind string, dryRun bool, fn func() error) error {
	start := time.Now()
	defer func() {
		metrics.BatchDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	release, err := locker.Acquire(ctx, BatchLockName)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			metrics.BatchesTotal.WithLabelValues(kind, metrics.ResultLocked).Inc()
			log.Warn("Batch rejected, another run holds the lock", nil)
		} else {
			metrics.BatchesTotal.WithLabelValues(kind, metrics.ResultFailure).Inc()
			log.Error("Failed to acquire run lock", err, nil)
		}
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release run lock", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	log.Info("Batch started", map[string]interface{}{
		"dry_run": dryRun,
	})

	if err := fn(); err != nil {
		metrics.BatchesTotal.WithLabelValues(kind, metrics.ResultFailure).Inc()
		log.Error("Batch failed, all changes rolled back", err, map[string]interface{}{
			"duration": time.Since(start).String(),
		})
		return err
	}

	result := metrics.ResultSuccess
	if dryRun {
		result = metrics.ResultDryRun
	}
	metrics.BatchesTotal.WithLabelValues(kind, result).Inc()
	log.Info("Batch finished", map[string]interface{}{
		"dry_run":  dryRun,
		"duration": time.Since(start).String(),
	})
	return nil
}
