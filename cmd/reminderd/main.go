package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/alert"
	"github.com/lantenhq/reminderd/internal/api"
	"github.com/lantenhq/reminderd/internal/config"
	"github.com/lantenhq/reminderd/internal/db"
	"github.com/lantenhq/reminderd/internal/delivery"
	"github.com/lantenhq/reminderd/internal/metrics"
	"github.com/lantenhq/reminderd/internal/observ"
	"github.com/lantenhq/reminderd/internal/pipeline"
	"github.com/lantenhq/reminderd/internal/redis"
	"github.com/lantenhq/reminderd/internal/scheduler"
	"github.com/lantenhq/reminderd/internal/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting reminderd",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
		zap.String("source", cfg.Source),
		zap.String("delivery", cfg.Delivery),
		zap.String("cron", cfg.CronSpec),
	)

	ctx := context.Background()

	// Payment/reminder source: direct postgres or the backend HTTP API.
	var src pipeline.Source
	switch cfg.Source {
	case config.SourcePostgres:
		database, err := db.New(ctx, db.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		logger.Info("database connection established",
			zap.String("host", cfg.DBHost),
			zap.Int("port", cfg.DBPort),
			zap.String("database", cfg.DBName),
		)

		src = db.NewSource(database, logger)
	case config.SourceHTTP:
		src = source.NewHTTPSource(source.Config{
			BaseURL: cfg.BackendBaseURL,
			AuthKey: cfg.BackendKey,
		}, logger)
	default:
		return fmt.Errorf("unknown source %q", cfg.Source)
	}

	// Redis backs the sent-log. Without it every run re-sends whatever
	// is due today, so degrade with a warning rather than refuse to start.
	var sent pipeline.SentLog
	redisClient, err := redis.New(ctx, redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, sent-log disabled",
			zap.Error(err),
			zap.String("host", cfg.RedisHost),
		)
	} else {
		defer redisClient.Close()
		sent = redis.NewSentLog(redisClient, time.Duration(cfg.SentTTLHours)*time.Hour, logger)
	}

	// Outbound channel.
	var channel pipeline.Channel
	switch cfg.Delivery {
	case config.DeliveryQueue:
		if cfg.SQSQueueURL == "" {
			return fmt.Errorf("queue delivery requires SQS_QUEUE_URL")
		}
		channel, err = delivery.NewQueueChannel(ctx, delivery.QueueConfig{
			Region:   cfg.AWSRegion,
			QueueURL: cfg.SQSQueueURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create queue channel: %w", err)
		}
	case config.DeliveryEmail:
		channel, err = delivery.NewEmailChannel(ctx, delivery.EmailConfig{
			Region:    cfg.AWSRegion,
			FromEmail: cfg.SESFromEmail,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create email channel: %w", err)
		}
	case config.DeliveryLog:
		channel = delivery.NewLogChannel(logger)
	default:
		return fmt.Errorf("unknown delivery %q", cfg.Delivery)
	}

	// Ops alerts on run-fatal errors.
	var alerter scheduler.Alerter
	if cfg.SNSAlertTopicARN != "" {
		publisher, err := alert.NewPublisher(ctx, cfg.AWSRegion, cfg.SNSAlertTopicARN, logger)
		if err != nil {
			logger.Warn("sns publisher unavailable, run alerts disabled", zap.Error(err))
		} else {
			alerter = publisher
		}
	}

	runner := pipeline.NewRunner(src, channel, sent, pipeline.Config{
		HorizonDays:    cfg.HorizonDays,
		ResolveWorkers: cfg.ResolveWorkers,
	}, logger)

	sched, err := scheduler.New(runner, alerter, cfg.CronSpec, logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	logger.Info("scheduler started", zap.String("cron", cfg.CronSpec))

	if cfg.RunOnStart {
		go func() {
			if _, err := sched.RunNow(context.Background()); err != nil {
				logger.Error("startup run failed", zap.Error(err))
			}
		}()
	}

	// Optional in-process consumer draining the queue into SES. Lets a
	// single deployment cover both halves while the queue stays the
	// contract between them.
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	if cfg.SQSConsume {
		if cfg.Delivery != config.DeliveryQueue {
			return fmt.Errorf("SQS_CONSUME requires queue delivery")
		}
		emailChannel, err := delivery.NewEmailChannel(ctx, delivery.EmailConfig{
			Region:    cfg.AWSRegion,
			FromEmail: cfg.SESFromEmail,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create consumer email channel: %w", err)
		}
		consumer, err := delivery.NewConsumer(ctx, delivery.QueueConfig{
			Region:   cfg.AWSRegion,
			QueueURL: cfg.SQSQueueURL,
		}, emailChannel, logger)
		if err != nil {
			return fmt.Errorf("failed to create queue consumer: %w", err)
		}
		go consumer.Run(consumerCtx)
		logger.Info("queue consumer started")
	}

	// Ops surface: health, metrics, manual trigger, last report.
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration_ms", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	})

	handler := api.NewHandler(logger, sched)
	r.Post("/run", handler.TriggerRun)
	r.Get("/report", handler.LastReport)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}
