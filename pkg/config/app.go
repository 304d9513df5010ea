package config

import "time"

// AppConfig holds the settings shared by every entrypoint.
type AppConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// PlansPath points at the YAML plan catalog loaded on boot.
	PlansPath string `env:"PLANS_PATH" envDefault:"plans.yml"`
}

// HTTPConfig configures the billing API server.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// BillingConfig configures webhook verification and retry behavior.
type BillingConfig struct {
	// WebhookSecret authenticates provider webhook payloads.
	WebhookSecret string `env:"BILLING_WEBHOOK_SECRET,required"`

	SignatureMaxAge time.Duration `env:"BILLING_SIGNATURE_MAX_AGE" envDefault:"5m"`
	MaxAttempts     int           `env:"BILLING_MAX_ATTEMPTS" envDefault:"5"`
}

// SweepConfig holds the cron expressions for the background jobs.
type SweepConfig struct {
	TrialExpirySchedule  string `env:"SWEEP_TRIAL_EXPIRY_SCHEDULE" envDefault:"*/15 * * * *"`
	RetentionSchedule    string `env:"SWEEP_RETENTION_SCHEDULE" envDefault:"30 3 * * *"`
	BillingRetrySchedule string `env:"SWEEP_BILLING_RETRY_SCHEDULE" envDefault:"*/5 * * * *"`

	// RetentionDays is how long raw usage events are kept; summaries
	// are permanent.
	RetentionDays int `env:"SWEEP_RETENTION_DAYS" envDefault:"90"`
}
