package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dgh-platform/feedback-service/cmd/mainconfig"
	"github.com/dgh-platform/feedback-service/internal/app/bootstrap"
	appconfig "github.com/dgh-platform/feedback-service/internal/config"
	"github.com/dgh-platform/feedback-service/internal/messaging"
	"github.com/dgh-platform/feedback-service/internal/notify"
	"github.com/dgh-platform/feedback-service/internal/observability/metrics"
	"github.com/dgh-platform/feedback-service/internal/refs"
	"github.com/dgh-platform/feedback-service/internal/reminders"
	reminderworker "github.com/dgh-platform/feedback-service/internal/worker/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reminder worker",
		"env", cfg.Env,
		"poll_interval", cfg.ReminderPollInterval,
		"batch_size", cfg.ReminderBatchSize,
	)

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

	store := reminders.NewStore(pool)
	resolver := refs.NewGatewayResolver(cfg.GatewayBaseURL, cfg.GatewayTimeout, logger)

	dispatcher := reminders.NewDispatcher(reminders.DispatcherConfig{
		Store:         store,
		SMS:           messaging.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger),
		Voice:         messaging.NewTwilioVoiceCaller(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioVoiceURL, logger),
		Patients:      resolver,
		Logger:        logger,
		Metrics:       metrics.NewReminderMetrics(nil),
		SubmitTimeout: cfg.ReminderSubmitTimeout,
	})

	var alerter *notify.Alerter
	if cfg.OpsAlertEmail != "" {
		sender := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
		alerter = notify.NewAlerter(sender, cfg.OpsAlertEmail, logger)
	}

	scheduler := reminderworker.NewScheduler(store, dispatcher, alerter, logger).
		WithInterval(cfg.ReminderPollInterval).
		WithBatchSize(cfg.ReminderBatchSize)

	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down reminder worker...")
	cancel()
	<-done
	logger.Info("reminder worker stopped")
}
