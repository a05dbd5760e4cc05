package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDepreciationRun posts monthly depreciation entries.
	TaskDepreciationRun = "ledger:depreciation_run"
	// TaskInventoryReconcile compares stock valuation with the ledger.
	TaskInventoryReconcile = "costing:reconcile"
	// TaskGLIntegrity sweeps posted entries for balance violations.
	TaskGLIntegrity = "ledger:gl_integrity"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// DepreciationPayload selects the month to depreciate. A zero payload means
// the month before the run.
type DepreciationPayload struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	ActorID int64 `json:"actor_id"`
}

// NewDepreciationTask constructs the depreciation task.
func NewDepreciationTask(payload DepreciationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepreciationRun, data), nil
}

// NewInventoryReconcileTask constructs the reconciliation task.
func NewInventoryReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskInventoryReconcile, nil)
}

// NewGLIntegrityTask constructs the integrity sweep task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrity, nil)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// PreviousMonth resolves the month before now in UTC.
func PreviousMonth(now time.Time) (int, time.Month) {
	prev := now.UTC().AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}
