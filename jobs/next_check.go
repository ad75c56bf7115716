package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
	jobmetrics "github.com/openprocurement/openprocurement.auctions.lease/internal/jobs"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/schedule"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Computer derives the scheduling view of an auction snapshot.
type Computer interface {
	Compute(ctx context.Context, a *auction.Auction, now time.Time) (nextcheck.Computed, error)
}

// ScheduleSaver persists computed schedules.
type ScheduleSaver interface {
	Save(ctx context.Context, e schedule.Entry) error
	Delete(ctx context.Context, auctionID string) error
}

// Enqueuer submits tasks; *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NextCheckJob evaluates snapshots, stores the result and schedules a
// TaskCheckDue at the computed next check.
type NextCheckJob struct {
	Computer Computer
	Store    ScheduleSaver
	Queue    Enqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewNextCheckJob wires dependencies for the next-check handler.
func NewNextCheckJob(computer Computer, store ScheduleSaver, queue Enqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *NextCheckJob {
	return &NextCheckJob{
		Computer: computer,
		Store:    store,
		Queue:    queue,
		Logger:   logger,
		Metrics:  metrics,
		clock:    time.Now,
	}
}

// Handle processes TaskNextCheck tasks.
func (j *NextCheckJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Computer == nil {
		return errors.New("next check: handler not configured")
	}
	var payload NextCheckPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("next check: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	a := &payload.Auction
	if a.ID == "" {
		return fmt.Errorf("next check: %v: %w", errMissingAuctionID, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskNextCheck)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	if payload.Now != nil {
		now = *payload.Now
	}
	logger := j.logger().With(slog.String("auction_id", a.ID), slog.String("status", string(a.Status)))

	computed, err := j.Computer.Compute(ctx, a, now)
	if err != nil {
		logger.Error("compute next check", slog.Any("error", err))
		if errors.Is(err, businessdate.ErrInvalidInput) {
			return fmt.Errorf("next check: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	var next *time.Time
	if computed.NextCheck != "" {
		at, err := time.Parse(time.RFC3339Nano, computed.NextCheck)
		if err != nil {
			return fmt.Errorf("next check: parse %q: %w", computed.NextCheck, err)
		}
		next = &at
	}
	lead := time.Duration(-1)
	if next != nil {
		lead = next.Sub(now)
	}
	j.metrics().ObserveNextCheck(string(computed.Source), lead)

	if j.Store != nil {
		var err error
		if next == nil && a.Status.IsTerminal() {
			err = j.Store.Delete(ctx, a.ID)
		} else {
			err = j.Store.Save(ctx, schedule.EntryFrom(a.ID, computed, now))
		}
		if err != nil {
			logger.Error("store schedule", slog.Any("error", err))
			return err
		}
	}

	if next == nil {
		logger.Info("no pending deadline")
		return nil
	}
	if err := j.scheduleDue(ctx, a.ID, *next, computed.NextCheck); err != nil {
		logger.Error("schedule check", slog.Any("error", err))
		return err
	}
	logger.Info("next check scheduled",
		slog.String("next_check", computed.NextCheck),
		slog.String("source", string(computed.Source)),
	)
	return nil
}

func (j *NextCheckJob) scheduleDue(ctx context.Context, auctionID string, next time.Time, nextCheck string) error {
	if j.Queue == nil {
		return nil
	}
	task, opts, err := NewCheckDueTask(auctionID, next, nextCheck)
	if err != nil {
		return err
	}
	if _, err := j.Queue.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}

func (j *NextCheckJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNextCheck))
	}
	return slog.Default().With(slog.String("job", TaskNextCheck))
}

func (j *NextCheckJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *NextCheckJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
