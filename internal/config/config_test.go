package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
	if cfg.ClassifierTimeout != 15*time.Second {
		t.Errorf("ClassifierTimeout = %v, want 15s", cfg.ClassifierTimeout)
	}
	if cfg.ReminderBatchSize != 25 {
		t.Errorf("ReminderBatchSize = %d, want 25", cfg.ReminderBatchSize)
	}
	if cfg.MaxInputChars != 2000 {
		t.Errorf("MaxInputChars = %d, want 2000", cfg.MaxInputChars)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("REMINDER_POLL_INTERVAL", "5s")
	t.Setenv("EMAIL_PROVIDER", " SES ")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue should be true")
	}
	if cfg.ReminderPollInterval != 5*time.Second {
		t.Errorf("ReminderPollInterval = %v, want 5s", cfg.ReminderPollInterval)
	}
	if cfg.EmailProvider != "ses" {
		t.Errorf("EmailProvider = %q, want ses", cfg.EmailProvider)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("SENTIMENT_CACHE_TTL", "soon")

	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want default 2", cfg.WorkerCount)
	}
	if cfg.SentimentTTL != 24*time.Hour {
		t.Errorf("SentimentTTL = %v, want default 24h", cfg.SentimentTTL)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.dgh.cm, https://admin.dgh.cm ,")

	cfg := Load()
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[0] != "https://app.dgh.cm" || cfg.CORSAllowedOrigins[1] != "https://admin.dgh.cm" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}
