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

// JWTConfig provides JWT validation settings for the admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailTransport() string
	GetEmailAPIURL() string
	GetEmailAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
}

// NotificationConfig provides settings for the notifier module.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetBusinessRecipients() []string
}

// InvoicingConfig provides settings for the external invoicing provider.
type InvoicingConfig interface {
	GetInvoicingAPIURL() string
	GetInvoicingCompanyID() string
	GetInvoicingAPIKey() string
	IsInvoicingEnabled() bool
}

// SchedulerConfig provides settings for the asynq-based sweep scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
}

// SweepConfig provides the partial-lead escalation thresholds.
type SweepConfig interface {
	GetFirstNoticeAfter() time.Duration
	GetReminderAfter() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	AppBaseURL         string
	EmailEnabled       bool
	EmailTransport     string
	EmailAPIURL        string
	EmailAPIKey        string
	EmailFromName      string
	EmailFromAddress   string
	BusinessRecipients []string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	InvoicingAPIURL    string
	InvoicingCompanyID string
	InvoicingAPIKey    string
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	SweepInterval      time.Duration
	FirstNoticeAfter   time.Duration
	ReminderAfter      time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailTransport() string   { return c.EmailTransport }
func (c *Config) GetEmailAPIURL() string      { return c.EmailAPIURL }
func (c *Config) GetEmailAPIKey() string      { return c.EmailAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string           { return c.AppBaseURL }
func (c *Config) GetBusinessRecipients() []string { return c.BusinessRecipients }

// InvoicingConfig implementation
func (c *Config) GetInvoicingAPIURL() string    { return c.InvoicingAPIURL }
func (c *Config) GetInvoicingCompanyID() string { return c.InvoicingCompanyID }
func (c *Config) GetInvoicingAPIKey() string    { return c.InvoicingAPIKey }
func (c *Config) IsInvoicingEnabled() bool      { return c.InvoicingAPIURL != "" && c.InvoicingAPIKey != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration { return c.SweepInterval }

// SweepConfig implementation
func (c *Config) GetFirstNoticeAfter() time.Duration { return c.FirstNoticeAfter }
func (c *Config) GetReminderAfter() time.Duration    { return c.ReminderAfter }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailAPIKey := getEnv("EMAIL_API_KEY", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:3000"),
		EmailEnabled:       emailEnabled && emailAPIKey != "",
		EmailTransport:     strings.ToLower(getEnv("EMAIL_TRANSPORT", "api")),
		EmailAPIURL:        getEnv("EMAIL_API_URL", "https://api.resend.com"),
		EmailAPIKey:        emailAPIKey,
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Food Truck Configurator"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		BusinessRecipients: splitCSV(getEnv("BUSINESS_NOTIFICATION_RECIPIENTS", "")),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		InvoicingAPIURL:    getEnv("INVOICING_API_URL", ""),
		InvoicingCompanyID: getEnv("INVOICING_COMPANY_ID", ""),
		InvoicingAPIKey:    getEnv("INVOICING_API_KEY", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SweepInterval:      mustDuration(getEnv("PARTIAL_LEAD_SWEEP_INTERVAL", "10m")),
		FirstNoticeAfter:   mustDuration(getEnv("PARTIAL_LEAD_FIRST_NOTICE_AFTER", "30m")),
		ReminderAfter:      mustDuration(getEnv("PARTIAL_LEAD_REMINDER_AFTER", "24h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if emailEnabled && cfg.EmailAPIKey == "" && cfg.EmailTransport == "api" {
		return nil, fmt.Errorf("EMAIL_API_KEY is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
