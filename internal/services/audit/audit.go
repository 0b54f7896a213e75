// Package audit schedules the periodic statistics drift check.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	statsUC "github.com/fastygo/tasktrail/usecase/stats"
)

const runTimeout = 2 * time.Minute

// Auditor is the ledger operation the job runs.
type Auditor interface {
	Audit(ctx context.Context) ([]statsUC.Drift, error)
}

// Job recounts completion counters on a cron schedule and logs every
// profile that drifted. It only reports; counters are never rewritten.
type Job struct {
	auditor Auditor
	cron    *cron.Cron
	logger  *zap.Logger
}

// New parses schedule (six fields, seconds first) and registers the run.
func New(auditor Auditor, schedule string, logger *zap.Logger) (*Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Job{
		auditor: auditor,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With(zap.String("component", "stats_audit")),
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("stats audit failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("audit schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start launches the cron scheduler.
func (j *Job) Start() {
	j.cron.Start()
	j.logger.Info("stats audit scheduled")
}

// Stop waits for a running audit to finish or ctx to expire.
func (j *Job) Stop(ctx context.Context) {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("stats audit stopped")
}

// Run performs one audit synchronously and returns the number of drifted
// profiles.
func (j *Job) Run(ctx context.Context) (int, error) {
	drifts, err := j.auditor.Audit(ctx)
	if err != nil {
		return 0, err
	}
	for _, d := range drifts {
		j.logger.Warn("completion counter drift",
			zap.String("user_id", d.UID),
			zap.Int("stored", d.Stored),
			zap.Int("recounted", d.Recounted),
		)
	}
	j.logger.Info("stats audit finished", zap.Int("drifted", len(drifts)))
	return len(drifts), nil
}
