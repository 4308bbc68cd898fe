package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	DatabaseURL        string
	CORSAllowedOrigins []string

	// Patient/professional lookups go through the platform gateway.
	GatewayBaseURL string
	GatewayTimeout time.Duration

	// Async feedback processing
	UseMemoryQueue    bool
	WorkerCount       int
	FeedbackQueueURL  string
	FeedbackJobsTable string

	// Sentiment classifier
	BedrockModelID    string
	ClassifierTimeout time.Duration
	MaxInputChars     int

	// Theme extraction
	GeminiAPIKey  string
	GeminiModelID string

	// Twilio notification channel
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioVoiceURL      string
	TwilioWebhookSecret string

	// Reminder dispatch
	ReminderPollInterval  time.Duration
	ReminderBatchSize     int
	ReminderSubmitTimeout time.Duration
	OpsAlertEmail         string

	// Email (ops alerts)
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AudioBucket         string

	// Redis (sentiment cache)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SentimentTTL  time.Duration

	// Admin surface
	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", ""),
		GatewayTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", 5*time.Second),

		UseMemoryQueue:    getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:       getEnvAsInt("WORKER_COUNT", 2),
		FeedbackQueueURL:  getEnv("FEEDBACK_QUEUE_URL", ""),
		FeedbackJobsTable: getEnv("FEEDBACK_JOBS_TABLE", "feedback_jobs"),

		BedrockModelID:    getEnv("BEDROCK_MODEL_ID", ""),
		ClassifierTimeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 15*time.Second),
		MaxInputChars:     getEnvAsInt("CLASSIFIER_MAX_INPUT_CHARS", 2000),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioVoiceURL:      getEnv("TWILIO_VOICE_URL", "http://twimlets.com/message"),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		ReminderPollInterval:  getEnvAsDuration("REMINDER_POLL_INTERVAL", 30*time.Second),
		ReminderBatchSize:     getEnvAsInt("REMINDER_BATCH_SIZE", 25),
		ReminderSubmitTimeout: getEnvAsDuration("REMINDER_SUBMIT_TIMEOUT", 10*time.Second),
		OpsAlertEmail:         getEnv("OPS_ALERT_EMAIL", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "DGH Platform"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AudioBucket:         getEnv("FEEDBACK_AUDIO_BUCKET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SentimentTTL:  getEnvAsDuration("SENTIMENT_CACHE_TTL", 24*time.Hour),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping empty
// entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
