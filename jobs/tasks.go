package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNextCheck evaluates an auction snapshot and schedules its next check.
	TaskNextCheck = "auction:next_check"
	// TaskCheckDue fires when a scheduled next check is reached.
	TaskCheckDue = "auction:check_due"
	// TaskScheduleSweep republishes overdue checks that were never delivered.
	TaskScheduleSweep = "schedule:sweep"
)

var errMissingAuctionID = errors.New("jobs: auction id required")

// NextCheckPayload carries the auction snapshot to evaluate. Now pins the
// evaluation instant; the handler clock is used when it is nil.
type NextCheckPayload struct {
	Auction auction.Auction `json:"auction"`
	Now     *time.Time      `json:"now,omitempty"`
}

// NewNextCheckTask builds a next-check evaluation task.
func NewNextCheckTask(a *auction.Auction, now *time.Time) (*asynq.Task, error) {
	if a == nil || a.ID == "" {
		return nil, errMissingAuctionID
	}
	body, err := json.Marshal(NextCheckPayload{Auction: *a, Now: now})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNextCheck, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// CheckDuePayload identifies the scheduled instant being fired.
type CheckDuePayload struct {
	AuctionID string `json:"auction_id"`
	NextCheck string `json:"next_check"`
}

// NewCheckDueTask builds the delayed task fired at next. Its task id makes
// repeated scheduling of the same instant idempotent.
func NewCheckDueTask(auctionID string, next time.Time, nextCheck string) (*asynq.Task, []asynq.Option, error) {
	if auctionID == "" {
		return nil, nil, errMissingAuctionID
	}
	body, err := json.Marshal(CheckDuePayload{AuctionID: auctionID, NextCheck: nextCheck})
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.ProcessAt(next),
		asynq.TaskID(checkDueTaskID(auctionID, next)),
		asynq.MaxRetry(10),
	}
	return asynq.NewTask(TaskCheckDue, body), opts, nil
}

func checkDueTaskID(auctionID string, next time.Time) string {
	return fmt.Sprintf("%s:%s:%d", TaskCheckDue, auctionID, next.Unix())
}

// ScheduleSweepPayload bounds a sweep run.
type ScheduleSweepPayload struct {
	Grace time.Duration `json:"grace"`
	Limit int64         `json:"limit"`
}

// NewScheduleSweepTask builds the periodic sweep task.
func NewScheduleSweepTask(grace time.Duration, limit int64) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduleSweepPayload{Grace: grace, Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScheduleSweep, body, asynq.Queue(QueueDefault)), nil
}
