package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dgh-platform/feedback-service/cmd/mainconfig"
	"github.com/dgh-platform/feedback-service/internal/app/bootstrap"
	appconfig "github.com/dgh-platform/feedback-service/internal/config"
	"github.com/dgh-platform/feedback-service/internal/feedback"
	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting feedback worker", "env", cfg.Env, "workers", cfg.WorkerCount)

	if cfg.UseMemoryQueue {
		logger.Error("USE_MEMORY_QUEUE is set; the in-memory queue lives inside the API process, run the API server instead")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	jobStore := feedback.NewJobStore(dynamoClient, cfg.FeedbackJobsTable, logger)

	store := feedback.NewStore(pool)

	processor, cleanup, err := bootstrap.BuildFeedbackProcessor(
		ctx, cfg, awsCfg, store, metrics.NewFeedbackMetrics(nil), logger)
	if err != nil {
		logger.Error("failed to build feedback processor", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	worker := feedback.NewWorker(
		processor,
		feedback.NewSQSQueue(sqsClient, cfg.FeedbackQueueURL),
		jobStore,
		logger,
		feedback.WithWorkerCount(cfg.WorkerCount),
	)

	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down feedback worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("feedback worker stopped")
	case <-doneCtx.Done():
		logger.Error("feedback worker shutdown timed out", "error", doneCtx.Err())
	}
}
