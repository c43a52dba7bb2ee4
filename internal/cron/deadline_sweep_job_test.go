package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/odalechea/procureflow-backend/pkg/logger"
)

type fakeExpirer struct {
	batches []int
	errAt   map[int]bool
	calls   int
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	call := f.calls
	f.calls++
	if f.errAt[call] {
		return 0, errors.New("db down")
	}
	if call < len(f.batches) {
		return f.batches[call], nil
	}
	return 0, nil
}

func newSweepJob(t *testing.T, expirer *fakeExpirer, batchSize int) *deadlineSweepJob {
	t.Helper()
	job, err := NewDeadlineSweepJob(DeadlineSweepJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "cron-test"}),
		Negotiations: expirer,
		BatchSize:    batchSize,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job.(*deadlineSweepJob)
}

func TestDeadlineSweepStopsOnShortBatch(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{10, 10, 3}}
	job := newSweepJob(t, expirer, 10)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.calls != 3 {
		t.Fatalf("expected 3 batches, got %d", expirer.calls)
	}
}

func TestDeadlineSweepSingleEmptyBatch(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{0}}
	job := newSweepJob(t, expirer, 10)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected 1 batch, got %d", expirer.calls)
	}
}

func TestDeadlineSweepContinuesPastFailedBatch(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{10, 10, 10, 3}, errAt: map[int]bool{1: true}}
	job := newSweepJob(t, expirer, 10)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected batch error to surface")
	}
	if expirer.calls != 4 {
		t.Fatalf("sweep must keep going after a failed batch, got %d calls", expirer.calls)
	}
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected 1 batch error, got %d", got)
	}
}

func TestDeadlineSweepAggregatesBatchErrors(t *testing.T) {
	expirer := &fakeExpirer{errAt: map[int]bool{0: true, 1: true}}
	job := newSweepJob(t, expirer, 10)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected batch errors to surface")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 batch errors, got %d", got)
	}
	if expirer.calls != 3 {
		t.Fatalf("expected empty batch to end the sweep after 3 calls, got %d", expirer.calls)
	}
}

func TestDeadlineSweepStopsOnCancelledContext(t *testing.T) {
	expirer := &fakeExpirer{errAt: map[int]bool{0: true}}
	job := newSweepJob(t, expirer, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); err == nil {
		t.Fatal("expected context error to surface")
	}
	if expirer.calls != 0 {
		t.Fatalf("expected no batches on a cancelled context, got %d", expirer.calls)
	}
}

func TestDeadlineSweepRequiresDependencies(t *testing.T) {
	if _, err := NewDeadlineSweepJob(DeadlineSweepJobParams{
		Negotiations: &fakeExpirer{},
	}); err == nil {
		t.Fatal("expected missing logger error")
	}
	if _, err := NewDeadlineSweepJob(DeadlineSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	}); err == nil {
		t.Fatal("expected missing negotiation service error")
	}
}
