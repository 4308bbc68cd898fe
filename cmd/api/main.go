package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgh-platform/feedback-service/cmd/mainconfig"
	"github.com/dgh-platform/feedback-service/internal/admin"
	"github.com/dgh-platform/feedback-service/internal/api/router"
	"github.com/dgh-platform/feedback-service/internal/app/bootstrap"
	"github.com/dgh-platform/feedback-service/internal/appointments"
	appconfig "github.com/dgh-platform/feedback-service/internal/config"
	"github.com/dgh-platform/feedback-service/internal/departments"
	"github.com/dgh-platform/feedback-service/internal/events"
	"github.com/dgh-platform/feedback-service/internal/feedback"
	"github.com/dgh-platform/feedback-service/internal/http/handlers"
	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/prescriptions"
	"github.com/dgh-platform/feedback-service/internal/refs"
	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting feedback-service API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// departments uses database/sql for its array-heavy queries.
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	feedbackMetrics := metrics.NewFeedbackMetrics(nil)
	reminderMetrics := metrics.NewReminderMetrics(nil)

	feedbackStore := feedback.NewStore(pool)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	jobStore := feedback.NewJobStore(dynamoClient, cfg.FeedbackJobsTable, logger)

	// With the in-memory queue the consumer must live in this process, so an
	// inline worker drains the same queue the publisher fills.
	var publisher *feedback.Publisher
	var inlineWorker *feedback.Worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.UseMemoryQueue {
		logger.Warn("using in-memory queue; jobs are lost on restart")
		memQueue := feedback.NewMemoryQueue(0)
		publisher = feedback.NewPublisher(memQueue, jobStore, logger)

		processor, cleanup, err := bootstrap.BuildFeedbackProcessor(
			ctx, cfg, awsCfg, feedbackStore, feedbackMetrics, logger)
		if err != nil {
			logger.Error("failed to build feedback processor", "error", err)
			os.Exit(1)
		}
		defer cleanup()

		inlineWorker = feedback.NewWorker(processor, memQueue, jobStore, logger,
			feedback.WithWorkerCount(cfg.WorkerCount))
		inlineWorker.Start(workerCtx)
	} else {
		sqsClient := sqs.NewFromConfig(awsCfg)
		publisher = feedback.NewPublisher(feedback.NewSQSQueue(sqsClient, cfg.FeedbackQueueURL), jobStore, logger)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	audioStore := feedback.NewAudioStore(s3Client, cfg.AudioBucket, logger)

	resolver := refs.NewGatewayResolver(cfg.GatewayBaseURL, cfg.GatewayTimeout, logger)

	reminderStore := reminders.NewStore(pool)
	dispatcher := reminders.NewDispatcher(reminders.DispatcherConfig{
		Store:    reminderStore,
		Patients: resolver,
		Metrics:  reminderMetrics,
		Logger:   logger,
	})

	callbackURL := ""
	if cfg.PublicBaseURL != "" {
		callbackURL = cfg.PublicBaseURL + "/webhooks/twilio/status"
	}
	twilioWebhooks := handlers.NewTwilioWebhookHandler(handlers.TwilioWebhookConfig{
		Dispatcher:  dispatcher,
		Processed:   events.NewProcessedStore(pool),
		AuthToken:   cfg.TwilioAuthToken,
		CallbackURL: callbackURL,
		Metrics:     reminderMetrics,
		Logger:      logger,
	})

	feedbackHandler := feedback.NewHandler(feedback.HandlerConfig{
		Store:     feedbackStore,
		Publisher: publisher,
		Jobs:      jobStore,
		Audio:     audioStore,
		Metrics:   feedbackMetrics,
		Logger:    logger,
	})
	departmentsHandler := departments.NewHandler(departments.NewRepository(db), logger)
	appointmentsHandler := appointments.NewHandler(appointments.NewStore(pool), logger)
	prescriptionsHandler := prescriptions.NewHandler(prescriptions.NewStore(pool), logger)
	remindersHandler := reminders.NewHandler(reminderStore, logger)

	routerCfg := &router.Config{
		Logger:               logger,
		FeedbackHandler:      feedbackHandler,
		DepartmentsHandler:   departmentsHandler,
		AppointmentsHandler:  appointmentsHandler,
		PrescriptionsHandler: prescriptionsHandler,
		RemindersHandler:     remindersHandler,
		TwilioWebhooks:       twilioWebhooks,
		AdminHandler:         admin.NewHandler(logger),
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       promhttp.Handler(),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if inlineWorker != nil {
		stopWorker()
		inlineWorker.Wait()
		logger.Info("inline feedback worker stopped")
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
