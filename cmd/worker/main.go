package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pasar/internal/allocation"
	"github.com/noah-isme/backend-pasar/internal/config"
	"github.com/noah-isme/backend-pasar/internal/jobs"
	"github.com/noah-isme/backend-pasar/internal/lock"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/repo"
	"github.com/noah-isme/backend-pasar/internal/report"
	"github.com/noah-isme/backend-pasar/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := repo.NewPool(initCtx, repo.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		ApplicationName: cfg.ServiceName + "-worker",
		Tracer:          obs.PGXTracer{},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(initCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(initCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	settingsProvider := settings.New(repo.Settings{DB: pool}, cfg.SettingsCacheTTL)
	reportSvc := &report.Service{
		Orders:       repo.Orders{DB: pool},
		Engine:       allocation.Engine{Rates: allocation.SettingsRates{Settings: settingsProvider}},
		R:            redisClient,
		TTL:          cfg.ReportCacheTTL,
		DefaultRange: cfg.ReportRangeDays,
	}

	warmup := &jobs.ReportWarmupJob{
		Reports: reportSvc,
		Locker:  lock.Locker{R: redisClient},
		Logger:  logger,
	}

	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{RangeDays: []int{7, cfg.ReportRangeDays}})
	if err != nil {
		logger.Fatal().Err(err).Msg("build warmup task")
	}

	asynqOpts := asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Username: redisOpts.Username,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynqOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise worker")
	}

	logger.Info().Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}
