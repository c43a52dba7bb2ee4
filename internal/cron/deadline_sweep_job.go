package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/odalechea/procureflow-backend/pkg/logger"
)

const (
	defaultSweepBatchSize = 100
	maxSweepBatches       = 50
)

// overdueExpirer is the slice of the negotiation service the sweep needs.
type overdueExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

// DeadlineSweepJobParams configure the negotiation deadline sweep.
type DeadlineSweepJobParams struct {
	Logger       *logger.Logger
	Negotiations overdueExpirer
	BatchSize    int
}

// NewDeadlineSweepJob builds the job that expires negotiation sessions whose
// response deadline has passed.
func NewDeadlineSweepJob(params DeadlineSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Negotiations == nil {
		return nil, fmt.Errorf("negotiation service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &deadlineSweepJob{
		logg:         params.Logger,
		negotiations: params.Negotiations,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

type deadlineSweepJob struct {
	logg         *logger.Logger
	negotiations overdueExpirer
	batchSize    int
	now          func() time.Time
}

func (j *deadlineSweepJob) Name() string { return "negotiation-deadline-sweep" }

// Run expires overdue sessions in batches. A failed batch does not stop the
// sweep; maxSweepBatches bounds a cycle so one huge backlog cannot starve
// the other jobs.
func (j *deadlineSweepJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	total := 0
	var errs error
	for batch := 0; batch < maxSweepBatches; batch++ {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		expired, err := j.negotiations.ExpireOverdue(ctx, now, j.batchSize)
		total += expired
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire batch %d: %w", batch, err))
			continue
		}
		if expired < j.batchSize {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": total})
	j.logg.Info(logCtx, "negotiation deadline sweep complete")
	return errs
}
