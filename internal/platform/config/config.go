// Package config loads typed configuration from the environment. It is the
// engine's key-value configuration boundary: every threshold the policy layer
// depends on is resolved here once, with a safe default.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Server
	Addr          string `env:"CONSENTGATE_ADDR" envDefault:":8080"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// Storage
	DatabaseURL string `env:"DATABASE_URL"`

	// Policy thresholds
	MinorAgeYears    int           `env:"MINOR_AGE_YEARS" envDefault:"16"`
	CacheTTL         time.Duration `env:"ROSTER_CACHE_TTL" envDefault:"5m"`
	ExpiryNoticeDays int           `env:"EXPIRY_NOTICE_DAYS" envDefault:"30"`
	AuditMaxRows     int           `env:"AUDIT_MAX_ROWS" envDefault:"2000"`
	FailClosed       bool          `env:"FAIL_CLOSED" envDefault:"true"`

	// Global anonymisation overrides. These can only escalate redaction,
	// never relax what a profile or record already requires.
	GlobalAnonymiseFaces bool `env:"GLOBAL_ANONYMISE_FACES" envDefault:"false"`
	GlobalInitialsOnly   bool `env:"GLOBAL_INITIALS_ONLY" envDefault:"false"`

	// Expiry report delivery
	ReportRecipients []string `env:"EXPIRY_REPORT_RECIPIENTS" envSeparator:","`
	ReportHour       int      `env:"EXPIRY_REPORT_HOUR" envDefault:"6"`

	// Mail
	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"consent-engine@localhost"`

	Redis RedisConfig
}

// RedisConfig captures connection settings for the seen-keys store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Load parses environment variables into a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects threshold values that would make the policy meaningless.
func (c *Config) Validate() error {
	if c.MinorAgeYears <= 0 {
		return fmt.Errorf("MINOR_AGE_YEARS must be positive, got %d", c.MinorAgeYears)
	}
	if c.AuditMaxRows <= 0 {
		return fmt.Errorf("AUDIT_MAX_ROWS must be positive, got %d", c.AuditMaxRows)
	}
	if c.ExpiryNoticeDays < 0 {
		return fmt.Errorf("EXPIRY_NOTICE_DAYS must not be negative, got %d", c.ExpiryNoticeDays)
	}
	return nil
}
