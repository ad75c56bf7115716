package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/app"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/awarding"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/observability"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/platform/cache"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/schedule"
	"github.com/openprocurement/openprocurement.auctions.lease/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	bdCfg, err := cfg.BusinessDate()
	if err != nil {
		logger.Error("business date config", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("calendar loaded",
		slog.String("timezone", bdCfg.Location.String()),
		slog.Int("non_working_days", len(bdCfg.Calendar.Days())),
		slog.Bool("sandbox", bdCfg.Sandbox),
	)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	calc := businessdate.NewCalculator(bdCfg)
	hints := awarding.NewRedisHints(redisClient, cfg.AwardingHintTTL)
	aggregator := nextcheck.NewAggregator(calc, cfg.NextCheckPolicy(bdCfg.Location), hints, logger)
	store := schedule.NewRedisStore(redisClient)
	notifier := schedule.NewRedisNotifier(redisClient, "")

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queue := asynq.NewClient(redisOpts)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	nextCheckJob := jobs.NewNextCheckJob(aggregator, store, queue, logger, metrics.Jobs())
	checkDueJob := jobs.NewCheckDueJob(store, notifier, logger, metrics.Jobs())

	sweepTask, err := jobs.NewScheduleSweepTask(5*time.Minute, 500)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    bdCfg.Location,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNextCheck, Handler: nextCheckJob.Handle},
			{Type: jobs.TaskCheckDue, Handler: checkDueJob.Handle},
			{Type: jobs.TaskScheduleSweep, Handler: checkDueJob.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	router := metrics.Router(func(ctx context.Context) error {
		return cache.Ping(ctx, redisClient)
	})
	router.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	router.Route("/schedule", schedule.NewHandler(store).MountRoutes)
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		logger.Info("metrics listening", slog.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
