package cli

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openprocurement/openprocurement.auctions.lease/jobs"
)

type scheduleResult struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}

func runSchedule(ctx context.Context, args []string, env Env) int {
	const name = "schedule"
	fs := newFlagSet(name, env.Stderr)
	var cal calendarFlags
	cal.register(fs)
	var redisAddr string
	fs.StringVar(&redisAddr, "redis", "", "Redis address of the queue (default: REDIS_ADDR)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, _, err := cal.setup(fs)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	a, err := readAuction(fs.Args(), env.Stdin)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	if a.ID == "" {
		return fail(env.Stderr, name, errors.New("auction id is required"))
	}
	var now *time.Time
	if cal.now != "" {
		at, err := cal.evaluationTime()
		if err != nil {
			return fail(env.Stderr, name, err)
		}
		now = &at
	}

	var client *jobs.Client
	if env.Enqueuer != nil {
		client = jobs.NewClientWith(env.Enqueuer)
	} else {
		if redisAddr == "" {
			redisAddr = cfg.RedisAddr
		}
		client = jobs.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	}
	defer client.Close()

	info, err := client.EnqueueNextCheck(ctx, a, now)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	if err := writeJSON(env.Stdout, scheduleResult{TaskID: info.ID, Queue: info.Queue}); err != nil {
		return fail(env.Stderr, name, err)
	}
	return ExitOK
}
