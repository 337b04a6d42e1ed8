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
	GetDBMaxConns() int32
	GetDBMinConns() int32
}

// JWTConfig provides JWT validation settings for middleware.
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

// SchedulerConfig provides settings for the asynq effects queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// CacheConfig provides settings for the Redis-backed TTL cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetCacheKeyPrefix() string
	GetCacheTTL() time.Duration
}

// ZuperConfig provides settings for the field-service provider API.
type ZuperConfig interface {
	GetZuperBaseURL() string
	GetZuperAPIKey() string
	GetZuperTimeout() time.Duration
	GetZuperRatePerSecond() float64
	IsZuperEnabled() bool
}

// HubSpotConfig provides settings for the CRM API.
type HubSpotConfig interface {
	GetHubSpotBaseURL() string
	GetHubSpotAccessToken() string
	GetHubSpotTimeout() time.Duration
	IsHubSpotEnabled() bool
}

// EmailConfig provides settings for SMTP notification delivery.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSchedulingInbox() string
}

// CrewConfig provides the location of the internal crew directory file.
type CrewConfig interface {
	GetCrewDirectoryPath() string
}

// ConfirmationConfig provides settings for the confirmation flow.
type ConfirmationConfig interface {
	GetJobTagSource() string
	GetConfirmLeaseTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	LogLevel           string
	HTTPAddr           string
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	CacheKeyPrefix     string
	CacheTTL           time.Duration
	ZuperBaseURL       string
	ZuperAPIKey        string
	ZuperTimeout       time.Duration
	ZuperRatePerSecond float64
	HubSpotBaseURL     string
	HubSpotAccessToken string
	HubSpotTimeout     time.Duration
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
	SchedulingInbox    string
	CrewDirectoryPath  string
	JobTagSource       string
	ConfirmLeaseTTL    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetDBMaxConns() int32   { return c.DBMaxConns }
func (c *Config) GetDBMinConns() int32   { return c.DBMinConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// CacheConfig implementation
func (c *Config) GetCacheKeyPrefix() string  { return c.CacheKeyPrefix }
func (c *Config) GetCacheTTL() time.Duration { return c.CacheTTL }

// ZuperConfig implementation
func (c *Config) GetZuperBaseURL() string        { return c.ZuperBaseURL }
func (c *Config) GetZuperAPIKey() string         { return c.ZuperAPIKey }
func (c *Config) GetZuperTimeout() time.Duration { return c.ZuperTimeout }
func (c *Config) GetZuperRatePerSecond() float64 { return c.ZuperRatePerSecond }
func (c *Config) IsZuperEnabled() bool {
	return c.ZuperBaseURL != "" && c.ZuperAPIKey != ""
}

// HubSpotConfig implementation
func (c *Config) GetHubSpotBaseURL() string        { return c.HubSpotBaseURL }
func (c *Config) GetHubSpotAccessToken() string    { return c.HubSpotAccessToken }
func (c *Config) GetHubSpotTimeout() time.Duration { return c.HubSpotTimeout }
func (c *Config) IsHubSpotEnabled() bool           { return c.HubSpotAccessToken != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSchedulingInbox() string  { return c.SchedulingInbox }

// CrewConfig implementation
func (c *Config) GetCrewDirectoryPath() string { return c.CrewDirectoryPath }

// ConfirmationConfig implementation
func (c *Config) GetJobTagSource() string           { return c.JobTagSource }
func (c *Config) GetConfirmLeaseTTL() time.Duration { return c.ConfirmLeaseTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBMaxConns:         int32(mustInt(getEnv("DB_MAX_CONNS", "10"))),
		DBMinConns:         int32(mustInt(getEnv("DB_MIN_CONNS", "2"))),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "schedules"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		CacheKeyPrefix:     getEnv("CACHE_KEY_PREFIX", "fieldsync:"),
		CacheTTL:           mustDuration(getEnv("CACHE_TTL", "10m")),
		ZuperBaseURL:       strings.TrimRight(getEnv("ZUPER_BASE_URL", ""), "/"),
		ZuperAPIKey:        getEnv("ZUPER_API_KEY", ""),
		ZuperTimeout:       mustDuration(getEnv("ZUPER_TIMEOUT", "20s")),
		ZuperRatePerSecond: mustFloat(getEnv("ZUPER_RATE_PER_SECOND", "4")),
		HubSpotBaseURL:     strings.TrimRight(getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"), "/"),
		HubSpotAccessToken: getEnv("HUBSPOT_ACCESS_TOKEN", ""),
		HubSpotTimeout:     mustDuration(getEnv("HUBSPOT_TIMEOUT", "15s")),
		EmailEnabled:       emailEnabled && smtpHost != "",
		SMTPHost:           smtpHost,
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Scheduling"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		SchedulingInbox:    getEnv("SCHEDULING_INBOX", ""),
		CrewDirectoryPath:  getEnv("CREW_DIRECTORY_PATH", ""),
		JobTagSource:       getEnv("JOB_TAG_SOURCE", "hubspot"),
		ConfirmLeaseTTL:    mustDuration(getEnv("CONFIRM_LEASE_TTL", "2m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.ConfirmLeaseTTL <= 0 {
		return nil, fmt.Errorf("CONFIRM_LEASE_TTL must be a positive duration")
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
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
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
