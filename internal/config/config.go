// Package config defines the configuration shared by every HiveWatch
// process. Configuration is loaded once at startup and is immutable
// thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Secret References (Lowest)
//
// Any missing required value or invalid format fails startup.
package config

import (
	"time"

	"hivewatch/internal/types"
)

// SecretString is an alias for types.SecretString so configuration secrets
// print redacted.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the section they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"hivewatch"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	IsTestMode  bool   `envconfig:"IS_TEST_MODE" default:"false"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Alerts        AlertConfig
	Sweeper       SweeperConfig
	Reassess      ReassessConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	APIExternalURL string        `envconfig:"API_EXTERNAL_URL" validate:"required,url"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	MaxBodyBytes   int64         `envconfig:"MAX_BODY_BYTES" default:"1048576" validate:"min=1024"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	AlertQueueURL    string `envconfig:"SQS_ALERTS" validate:"required,url"`
	ReassessQueueURL string `envconfig:"SQS_REASSESS" validate:"required,url"`

	// LocalStack support; empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// AlertConfig controls outbound alert webhook delivery.
type AlertConfig struct {
	WebhookURL    string        `envconfig:"ALERT_WEBHOOK_URL" validate:"omitempty,url"`
	SigningSecret SecretString  `envconfig:"ALERT_SIGNING_SECRET" validate:"required_with=WebhookURL"`
	Timeout       time.Duration `envconfig:"ALERT_TIMEOUT" default:"10s"`
	UserAgent     string        `envconfig:"ALERT_USER_AGENT" default:"HiveWatch-Alerts/1.0"`
	MaxRetries    int           `envconfig:"ALERT_MAX_RETRIES" default:"3" validate:"min=0,max=10"`

	// Platform forces a payload format (slack, discord, generic); empty
	// detects it from WebhookURL.
	Platform string `envconfig:"ALERT_WEBHOOK_PLATFORM" validate:"omitempty,oneof=slack discord generic"`

	// During secret rotation the previous secret also signs until it expires.
	PreviousSigningSecret   SecretString `envconfig:"ALERT_PREVIOUS_SIGNING_SECRET"`
	PreviousSecretExpiresAt time.Time    `envconfig:"ALERT_PREVIOUS_SECRET_EXPIRES_AT"`
}

// SweeperConfig controls the overdue-inspection sweep.
type SweeperConfig struct {
	// Schedule is a standard five-field cron spec.
	Schedule  string `envconfig:"SWEEP_SCHEDULE" default:"0 6 * * *"`
	BatchSize int    `envconfig:"SWEEP_BATCH_SIZE" default:"25" validate:"min=1,max=500"`
	MaxHives  int    `envconfig:"SWEEP_MAX_HIVES" default:"1000" validate:"min=1"`
}

// ReassessConfig controls the reassessment worker.
type ReassessConfig struct {
	Concurrency  int `envconfig:"REASSESS_CONCURRENCY" default:"4" validate:"min=1,max=64"`
	HistoryDepth int `envconfig:"REASSESS_HISTORY_DEPTH" default:"12" validate:"min=1,max=100"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	// BcryptCost applies to newly issued API keys.
	BcryptCost int `envconfig:"API_KEY_BCRYPT_COST" default:"12" validate:"min=4,max=31"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"HiveWatch"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv       ConfigErrorType = "MISSING_ENV"
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	ErrValidation       ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing          ConfigErrorType = "PARSING_FAILED"
	ErrSchedule         ConfigErrorType = "INVALID_SCHEDULE"
)
