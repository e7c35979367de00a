package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pasar/internal/lock"
	"github.com/noah-isme/backend-pasar/internal/report"
)

// warmupLockKey serialises warmups across worker replicas.
const warmupLockKey = "jobs:report_warmup"

// ReportWarmupJob recomputes the admin dashboards and sales series so they
// land in the cache before anyone asks for them.
type ReportWarmupJob struct {
	Reports *report.Service
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// Handle processes TaskReportWarmup tasks. Replicas contend on a redis lock;
// the losers simply skip the run since the winner's work covers them.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.RangeDays) == 0 {
		payload.RangeDays = []int{7, 30}
	}

	ttl := j.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	lockCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := j.Locker.WithLock(lockCtx, warmupLockKey, ttl, func(context.Context) error {
		return j.warm(ctx, payload.RangeDays)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		j.Logger.Debug().Msg("report warmup already running elsewhere")
		return nil
	}
	return err
}

func (j *ReportWarmupJob) warm(ctx context.Context, rangeDays []int) error {
	start := time.Now()
	for _, days := range rangeDays {
		if days <= 0 {
			continue
		}
		to := time.Now()
		from := to.AddDate(0, 0, -days)
		if _, err := j.Reports.Admin(ctx, from, to); err != nil {
			j.Logger.Error().Err(err).Int("days", days).Msg("warm admin summary")
			return err
		}
		if _, err := j.Reports.Sales(ctx, days); err != nil {
			j.Logger.Error().Err(err).Int("days", days).Msg("warm sales series")
			return err
		}
	}
	j.Logger.Info().
		Int("windows", len(rangeDays)).
		Dur("duration", time.Since(start)).
		Msg("report warmup complete")
	return nil
}
