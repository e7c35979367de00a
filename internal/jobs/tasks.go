// Package jobs holds the background task definitions processed by the worker
// binary. Tasks go through asynq; the scheduler registers the recurring ones.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-computes the admin dashboard so the first request
	// after a cache invalidation does not pay the recomputation cost.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload selects the windows to warm.
type ReportWarmupPayload struct {
	RangeDays []int `json:"rangeDays"`
}

// NewReportWarmupTask constructs the warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
