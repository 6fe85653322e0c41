// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Session backends.
const (
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// Config holds the settings read by cmd/api.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	RunLocal bool   `envconfig:"RUN_LOCAL"`

	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"redis"`
	RedisURL       string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SessionTable   string        `envconfig:"SESSION_TABLE"`
	SessionTTL     time.Duration `envconfig:"ORDER_SESSION_TTL" default:"30m"`

	PaymentsTable    string `envconfig:"PAYMENTS_TABLE"`
	PaymentsQueueURL string `envconfig:"PAYMENTS_QUEUE_URL"`

	TokenSecret string `envconfig:"ORDER_TOKEN_SECRET" required:"true"`

	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	CleanupOnCreate  bool `envconfig:"CLEANUP_PAYMENT_ON_CREATE" default:"true"`
	CleanupOnConfirm bool `envconfig:"CLEANUP_PAYMENT_ON_CONFIRM" default:"true"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"CheckoutSession"`
	AWSMaxAttempts   int    `envconfig:"AWS_MAX_ATTEMPTS" default:"3"`
}

// WorkerConfig holds the settings read by cmd/worker.
type WorkerConfig struct {
	Env              string `envconfig:"APP_ENV" default:"development"`
	RunLocal         bool   `envconfig:"RUN_LOCAL"`
	PaymentsTable    string `envconfig:"PAYMENTS_TABLE" required:"true"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"CheckoutSession"`
	LocalSQSBody     string `envconfig:"LOCAL_SQS_BODY"`
	AWSMaxAttempts   int    `envconfig:"AWS_MAX_ATTEMPTS" default:"3"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWorker is Load for the ledger worker.
func LoadWorker() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if cfg.PaymentsTable == "" {
		return nil, fmt.Errorf("load config: PAYMENTS_TABLE must not be empty")
	}
	return &cfg, nil
}

func process(spec interface{}) error {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("load config: ORDER_TOKEN_SECRET must not be empty")
	}
	switch c.SessionBackend {
	case BackendRedis:
	case BackendDynamoDB:
		if c.SessionTable == "" {
			return fmt.Errorf("load config: SESSION_TABLE is required for the %s backend", BackendDynamoDB)
		}
	default:
		return fmt.Errorf("load config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("load config: ORDER_SESSION_TTL must be positive")
	}
	return nil
}
