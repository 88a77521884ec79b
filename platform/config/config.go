// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq queue client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetWorkerConcurrency() int
	GetAsynqQueueName() string
}

// DispatchConfig provides settings for the dispatch eligibility gate.
type DispatchConfig interface {
	GetDispatchHourlyLimit() int
	GetBusinessHoursLocation() *time.Location
	GetBatchMaxConcurrency() int
	GetBatchMaxRetries() int
	GetBatchRetryBaseDelay() time.Duration
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// LinkedInConfig provides settings for the LinkedIn messaging gateway.
type LinkedInConfig interface {
	GetLinkedInURL() string
	GetLinkedInKey() string
}

// EmailConfig provides settings for outbound email.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSalesTeamEmail() string
}

// GeneratorConfig provides settings for the message-generation collaborator.
type GeneratorConfig interface {
	GetGeneratorURL() string
	GetGeneratorKey() string
	GetGeneratorTimeout() time.Duration
}

// ClassifierConfig provides settings for the reply-classification collaborator.
type ClassifierConfig interface {
	GetClassifierURL() string
	GetClassifierKey() string
	GetClassifierTimeout() time.Duration
}

// CalendarConfig provides settings for the calendar collaborator.
type CalendarConfig interface {
	GetCalendarURL() string
	GetCalendarKey() string
	GetCalendarID() string
}

// StorageConfig provides settings for MinIO object storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketBriefings() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application settings loaded from the environment.
type Config struct {
	Env         string
	DatabaseURL string

	RedisURL          string
	RedisTLSInsecure  bool
	WorkerConcurrency int
	AsynqQueue        string

	DispatchHourlyLimit   int
	BusinessHoursLocation *time.Location
	BatchMaxConcurrency   int
	BatchMaxRetries       int
	BatchRetryBaseDelay   time.Duration

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	LinkedInURL string
	LinkedInKey string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	SalesTeamEmail   string

	GeneratorURL     string
	GeneratorKey     string
	GeneratorTimeout time.Duration

	ClassifierURL     string
	ClassifierKey     string
	ClassifierTimeout time.Duration

	CalendarURL string
	CalendarKey string
	CalendarID  string

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOBucketBriefings string
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("BUSINESS_HOURS_TZ", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS_TZ: %w", err)
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		WorkerConcurrency: getIntEnv("WORKER_CONCURRENCY", 10),
		AsynqQueue:        getEnv("ASYNQ_QUEUE", "default"),

		DispatchHourlyLimit:   getIntEnv("DISPATCH_HOURLY_LIMIT", 100),
		BusinessHoursLocation: loc,
		BatchMaxConcurrency:   getIntEnv("BATCH_MAX_CONCURRENCY", 5),
		BatchMaxRetries:       getIntEnv("BATCH_MAX_RETRIES", 3),
		BatchRetryBaseDelay:   mustDuration(getEnv("BATCH_RETRY_BASE_DELAY", "100ms")),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		LinkedInURL: getEnv("LINKEDIN_URL", ""),
		LinkedInKey: getEnv("LINKEDIN_KEY", ""),

		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         getIntEnv("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Prospecting"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesTeamEmail:   getEnv("SALES_TEAM_EMAIL", ""),

		GeneratorURL:     getEnv("GENERATOR_URL", ""),
		GeneratorKey:     getEnv("GENERATOR_KEY", ""),
		GeneratorTimeout: mustDuration(getEnv("GENERATOR_TIMEOUT", "10s")),

		ClassifierURL:     getEnv("CLASSIFIER_URL", ""),
		ClassifierKey:     getEnv("CLASSIFIER_KEY", ""),
		ClassifierTimeout: mustDuration(getEnv("CLASSIFIER_TIMEOUT", "10s")),

		CalendarURL: getEnv("CALENDAR_URL", ""),
		CalendarKey: getEnv("CALENDAR_KEY", ""),
		CalendarID:  getEnv("CALENDAR_ID", "primary"),

		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketBriefings: getEnv("MINIO_BUCKET_BRIEFINGS", "meeting-briefings"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string                   { return c.DatabaseURL }
func (c *Config) GetRedisURL() string                      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                { return c.RedisTLSInsecure }
func (c *Config) GetWorkerConcurrency() int                { return c.WorkerConcurrency }
func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueue }
func (c *Config) GetDispatchHourlyLimit() int              { return c.DispatchHourlyLimit }
func (c *Config) GetBusinessHoursLocation() *time.Location { return c.BusinessHoursLocation }
func (c *Config) GetBatchMaxConcurrency() int              { return c.BatchMaxConcurrency }
func (c *Config) GetBatchMaxRetries() int                  { return c.BatchMaxRetries }
func (c *Config) GetBatchRetryBaseDelay() time.Duration    { return c.BatchRetryBaseDelay }
func (c *Config) GetWhatsAppURL() string                   { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string                   { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string              { return c.WhatsAppDeviceID }
func (c *Config) GetLinkedInURL() string                   { return c.LinkedInURL }
func (c *Config) GetLinkedInKey() string                   { return c.LinkedInKey }
func (c *Config) GetEmailEnabled() bool                    { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                         { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string                  { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string                  { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string                 { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string              { return c.EmailFromAddress }
func (c *Config) GetSalesTeamEmail() string                { return c.SalesTeamEmail }
func (c *Config) GetGeneratorURL() string                  { return c.GeneratorURL }
func (c *Config) GetGeneratorKey() string                  { return c.GeneratorKey }
func (c *Config) GetGeneratorTimeout() time.Duration       { return c.GeneratorTimeout }
func (c *Config) GetClassifierURL() string                 { return c.ClassifierURL }
func (c *Config) GetClassifierKey() string                 { return c.ClassifierKey }
func (c *Config) GetClassifierTimeout() time.Duration      { return c.ClassifierTimeout }
func (c *Config) GetCalendarURL() string                   { return c.CalendarURL }
func (c *Config) GetCalendarKey() string                   { return c.CalendarKey }
func (c *Config) GetCalendarID() string                    { return c.CalendarID }
func (c *Config) GetMinIOEndpoint() string                 { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string                { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string                { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                     { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketBriefings() string          { return c.MinIOBucketBriefings }
func (c *Config) IsMinIOEnabled() bool                     { return c.MinIOEndpoint != "" }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
