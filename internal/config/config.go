package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	JWT            JWTConfig            `yaml:"jwt"`
	Log            LogConfig            `yaml:"log"`
	Business       BusinessConfig       `yaml:"business"`
	Readings       ReadingsConfig       `yaml:"readings"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Alerts         AlertsConfig         `yaml:"alerts"`
	Redis          RedisConfig          `yaml:"redis"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"` // bound on waiting for a pooled connection
	MaxRetries      int           `yaml:"max_retries"`     // serialization failure / deadlock retries
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

// JWTConfig contains the shared secret used to verify caller tokens
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BusinessConfig decides how instants map to station-dates
type BusinessConfig struct {
	Timezone string `yaml:"timezone"` // IANA name, e.g. "Asia/Kolkata"
}

// ReadingsConfig contains meter reading ingestion settings
type ReadingsConfig struct {
	RequireResetConfirmation bool `yaml:"require_reset_confirmation"`
}

// ReconciliationConfig contains day reconciliation settings
type ReconciliationConfig struct {
	FinalizeOnRun *bool `yaml:"finalize_on_run"` // defaults to true
	RerunDays     int   `yaml:"rerun_days"`      // how far back RerunOpenDays looks
}

// AlertsConfig contains alert dispatch settings
type AlertsConfig struct {
	QueueSize     int            `yaml:"queue_size"`
	Workers       int            `yaml:"workers"`
	Persist       bool           `yaml:"persist"`
	SendGrid      SendGridConfig `yaml:"sendgrid"`
	Firebase      FirebaseConfig `yaml:"firebase"`
	Breaker       BreakerConfig  `yaml:"breaker"`
	RatePerSecond float64        `yaml:"rate_per_second"`
	Burst         int            `yaml:"burst"`
}

type SendGridConfig struct {
	Enabled   bool     `yaml:"enabled"`
	APIKey    string   `yaml:"api_key"`
	FromEmail string   `yaml:"from_email"`
	FromName  string   `yaml:"from_name"`
	To        []string `yaml:"to"`
}

type FirebaseConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	TopicPrefix     string `yaml:"topic_prefix"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// RedisConfig backs the scheduled job lock
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AutoCloseDays  string        `yaml:"auto_close_days"`
	RerunOpenDays  string        `yaml:"rerun_open_days"`
	JobLockTimeout time.Duration `yaml:"job_lock_timeout"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, applies env overrides and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			c.Database.Port = p
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			c.Server.Port = p
		}
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Business
	if val := os.Getenv("BUSINESS_TIMEZONE"); val != "" {
		c.Business.Timezone = val
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGrid.APIKey = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Alerts.Firebase.CredentialsFile = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		c.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.AcquireTimeout == 0 {
		c.Database.AcquireTimeout = 5 * time.Second
	}
	if c.Database.MaxRetries < 0 {
		return fmt.Errorf("database max_retries must not be negative")
	}
	if c.Database.MaxRetries == 0 {
		c.Database.MaxRetries = 3
	}
	if c.Database.RetryBackoff == 0 {
		c.Database.RetryBackoff = 50 * time.Millisecond
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Business timezone
	if c.Business.Timezone == "" {
		c.Business.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Business.Timezone); err != nil {
		return fmt.Errorf("invalid business timezone %q: %w", c.Business.Timezone, err)
	}

	// Reconciliation defaults
	if c.Reconciliation.FinalizeOnRun == nil {
		finalize := true
		c.Reconciliation.FinalizeOnRun = &finalize
	}
	if c.Reconciliation.RerunDays == 0 {
		c.Reconciliation.RerunDays = 7
	}

	// Alerts defaults
	if c.Alerts.QueueSize == 0 {
		c.Alerts.QueueSize = 1024
	}
	if c.Alerts.Workers == 0 {
		c.Alerts.Workers = 2
	}
	if c.Alerts.Breaker.FailureThreshold == 0 {
		c.Alerts.Breaker.FailureThreshold = 5
	}
	if c.Alerts.Breaker.OpenTimeout == 0 {
		c.Alerts.Breaker.OpenTimeout = 30 * time.Second
	}
	if c.Alerts.RatePerSecond == 0 {
		c.Alerts.RatePerSecond = 2
	}
	if c.Alerts.Burst == 0 {
		c.Alerts.Burst = 10
	}
	if c.Alerts.SendGrid.Enabled {
		if c.Alerts.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required when sendgrid alerts are enabled")
		}
		if len(c.Alerts.SendGrid.To) == 0 {
			return fmt.Errorf("sendgrid alerts need at least one recipient")
		}
	}
	if c.Alerts.Firebase.Enabled && c.Alerts.Firebase.CredentialsFile == "" {
		return fmt.Errorf("firebase credentials file is required when push alerts are enabled")
	}
	if c.Alerts.Firebase.TopicPrefix == "" {
		c.Alerts.Firebase.TopicPrefix = "station-alerts"
	}

	// Scheduler defaults
	if c.Scheduler.AutoCloseDays == "" {
		c.Scheduler.AutoCloseDays = "0 30 2 * * *" // 2:30 AM in the business timezone
	}
	if c.Scheduler.RerunOpenDays == "" {
		c.Scheduler.RerunOpenDays = "0 0 * * * *" // hourly
	}
	if c.Scheduler.JobLockTimeout == 0 {
		c.Scheduler.JobLockTimeout = 10 * time.Minute
	}

	return nil
}

// FinalizeOnRun reports whether a reconciliation run finalizes an eligible day.
func (c *Config) FinalizeOnRun() bool {
	return c.Reconciliation.FinalizeOnRun == nil || *c.Reconciliation.FinalizeOnRun
}

// Location returns the business timezone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
