package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/openprocurement/openprocurement.auctions.lease/internal/jobs"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/schedule"
)

// ScheduleReader exposes stored schedules to the due handlers.
type ScheduleReader interface {
	Load(ctx context.Context, auctionID string) (schedule.Entry, error)
	Due(ctx context.Context, until time.Time, limit int64) ([]string, error)
	MarkDelivered(ctx context.Context, auctionID, nextCheck string, at time.Time) (bool, error)
}

// DueNotifier delivers due events to the auction owner.
type DueNotifier interface {
	NotifyDue(ctx context.Context, ev schedule.DueEvent) (int64, error)
}

// CheckDueJob fires the notification of a scheduled next check, unless a
// later evaluation replaced it.
type CheckDueJob struct {
	Store    ScheduleReader
	Notifier DueNotifier
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewCheckDueJob wires dependencies for the due handlers.
func NewCheckDueJob(store ScheduleReader, notifier DueNotifier, logger *slog.Logger, metrics *jobmetrics.Metrics) *CheckDueJob {
	return &CheckDueJob{Store: store, Notifier: notifier, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle processes TaskCheckDue tasks.
func (j *CheckDueJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil || j.Notifier == nil {
		return errors.New("check due: handler not configured")
	}
	var payload CheckDuePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("check due: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.AuctionID == "" {
		return fmt.Errorf("check due: %v: %w", errMissingAuctionID, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskCheckDue)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskCheckDue).With(slog.String("auction_id", payload.AuctionID))
	entry, err := j.Store.Load(ctx, payload.AuctionID)
	if errors.Is(err, schedule.ErrNotFound) {
		logger.Info("schedule removed, dropping check")
		return nil
	}
	if err != nil {
		return err
	}
	if entry.NextCheck != payload.NextCheck {
		logger.Debug("check superseded", slog.String("scheduled", payload.NextCheck), slog.String("current", entry.NextCheck))
		return nil
	}
	if !entry.DeliveredAt.IsZero() {
		logger.Debug("check already delivered", slog.Time("delivered_at", entry.DeliveredAt))
		return nil
	}
	return j.notify(ctx, logger, entry)
}

// HandleSweep processes TaskScheduleSweep tasks. It publishes entries whose
// next check passed more than Grace ago and was never delivered.
func (j *CheckDueJob) HandleSweep(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil || j.Notifier == nil {
		return errors.New("schedule sweep: handler not configured")
	}
	var payload ScheduleSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("schedule sweep: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskScheduleSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskScheduleSweep)
	ids, err := j.Store.Due(ctx, j.now().Add(-payload.Grace), payload.Limit)
	if err != nil {
		logger.Error("list overdue checks", slog.Any("error", err))
		return err
	}
	for _, id := range ids {
		entry, err := j.Store.Load(ctx, id)
		if errors.Is(err, schedule.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !entry.DeliveredAt.IsZero() {
			continue
		}
		if err := j.notify(ctx, logger.With(slog.String("auction_id", id)), entry); err != nil {
			return err
		}
	}
	if len(ids) > 0 {
		logger.Warn("republished overdue checks", slog.Int("count", len(ids)))
	}
	return nil
}

func (j *CheckDueJob) notify(ctx context.Context, logger *slog.Logger, entry schedule.Entry) error {
	receivers, err := j.Notifier.NotifyDue(ctx, schedule.DueEvent{AuctionID: entry.AuctionID, NextCheck: entry.NextCheck})
	if err != nil {
		logger.Error("notify due", slog.Any("error", err))
		return err
	}
	if receivers == 0 {
		logger.Warn("due event had no subscribers", slog.String("next_check", entry.NextCheck))
	} else {
		logger.Info("due event published", slog.String("next_check", entry.NextCheck), slog.Int64("receivers", receivers))
	}
	if _, err := j.Store.MarkDelivered(ctx, entry.AuctionID, entry.NextCheck, j.now()); err != nil {
		logger.Error("mark delivered", slog.Any("error", err))
		return err
	}
	return nil
}

func (j *CheckDueJob) logger(task string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", task))
	}
	return slog.Default().With(slog.String("job", task))
}

func (j *CheckDueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CheckDueJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
